// Package bundle reads app bundle containers into the module-entry model.
package bundle

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/aabtools/apkset/internal/domain"
)

// Top-level container paths that are not modules.
var nonModulePrefixes = []string{
	"BUNDLE-METADATA/",
	"META-INF/",
}

const bundleConfigPath = "BundleConfig.pb"

// Reader reads .aab containers from disk.
type Reader struct{}

// NewReader creates a new bundle Reader.
func NewReader() Reader {
	return Reader{}
}

// ReadBundle opens the bundle archive and maps its contents into modules of
// lazy entries. Entry content stays backed by the archive; the returned
// closer must be held open until all content reads are done.
func (Reader) ReadBundle(ctx context.Context, path string) (domain.AppBundle, io.Closer, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return domain.AppBundle{}, nil, fmt.Errorf("failed to open bundle %s: %w", path, err)
	}

	moduleEntries := make(map[string][]domain.ModuleEntry)
	for _, file := range archive.File {
		if err := ctx.Err(); err != nil {
			archive.Close()
			return domain.AppBundle{}, nil, err
		}
		if skipContainerPath(file.Name) {
			continue
		}
		moduleName, entryPath, ok := strings.Cut(file.Name, "/")
		if !ok || entryPath == "" {
			continue
		}
		moduleEntries[moduleName] = append(moduleEntries[moduleName], domain.ModuleEntry{
			Path:              entryPath,
			ForceUncompressed: file.Method == zip.Store,
			ShouldSign:        strings.HasSuffix(entryPath, ".apk"),
			Content:           zipEntrySource{file: file},
		})
	}

	names := make([]string, 0, len(moduleEntries))
	for name := range moduleEntries {
		names = append(names, name)
	}
	sort.Strings(names)

	appBundle := domain.AppBundle{}
	for _, name := range names {
		appBundle.Modules = append(appBundle.Modules, domain.BundleModule{
			Name:    name,
			Entries: moduleEntries[name],
		})
	}

	if base, ok := appBundle.BaseModule(); ok {
		packageName, err := readPackageName(base)
		if err != nil {
			archive.Close()
			return domain.AppBundle{}, nil, err
		}
		appBundle.PackageName = packageName
	}

	log.Debugf("read bundle %s: %d modules", path, len(appBundle.Modules))
	return appBundle, archive, nil
}

func skipContainerPath(name string) bool {
	if name == bundleConfigPath || strings.HasSuffix(name, "/") {
		return true
	}
	for _, prefix := range nonModulePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// zipEntrySource adapts one archive member to domain.ByteSource. Each Open
// call yields an independent decompressing reader over the member.
type zipEntrySource struct {
	file *zip.File
}

func (s zipEntrySource) Open() (io.ReadCloser, error) {
	return s.file.Open()
}

func (s zipEntrySource) Size() (int64, error) {
	return int64(s.file.UncompressedSize64), nil
}

type manifestXML struct {
	Package string `xml:"package,attr"`
}

// readPackageName extracts the application package name declared by the base
// module's manifest.
func readPackageName(base domain.BundleModule) (string, error) {
	manifest, ok := base.Entry(domain.ManifestPath)
	if !ok {
		return "", fmt.Errorf("base module has no manifest at %s", domain.ManifestPath)
	}
	reader, err := manifest.Content.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open base manifest: %w", err)
	}
	defer reader.Close()

	var parsed manifestXML
	if err := xml.NewDecoder(reader).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse base manifest: %w", err)
	}
	if parsed.Package == "" {
		return "", fmt.Errorf("base manifest declares no package name")
	}
	return parsed.Package, nil
}
