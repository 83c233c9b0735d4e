package apkset

import (
	"archive/zip"
	"encoding/json"
	"fmt"
)

// ReadTableOfContents loads the metadata of an existing APK set archive.
func ReadTableOfContents(path string) (TableOfContents, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return TableOfContents{}, fmt.Errorf("failed to open apk set %s: %w", path, err)
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name != tocPath {
			continue
		}
		reader, err := file.Open()
		if err != nil {
			return TableOfContents{}, fmt.Errorf("failed to open %s in %s: %w", tocPath, path, err)
		}
		defer reader.Close()

		var toc TableOfContents
		if err := json.NewDecoder(reader).Decode(&toc); err != nil {
			return TableOfContents{}, fmt.Errorf("failed to parse %s in %s: %w", tocPath, path, err)
		}
		return toc, nil
	}
	return TableOfContents{}, fmt.Errorf("%s is not an apk set: missing %s", path, tocPath)
}
