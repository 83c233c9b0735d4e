// Package apkset serializes and reads APK set archives.
package apkset

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"github.com/aabtools/apkset/internal/domain"
	apkerrors "github.com/aabtools/apkset/internal/errors"
)

// Writer serializes APK sets to local archive files.
type Writer struct{}

// NewWriter creates a new APK set Writer.
func NewWriter() Writer {
	return Writer{}
}

// WriteApkSet writes the finished set to outputPath as a single archive:
// toc.json followed by one inner archive per split under splits/. An existing
// destination is refused unless overwrite is set.
func (Writer) WriteApkSet(ctx context.Context, apkSet domain.ApkSet, outputPath string, overwrite bool, quiet bool) error {
	if _, err := os.Stat(outputPath); err == nil {
		if !overwrite {
			return fmt.Errorf("%w: %s", apkerrors.ErrOutputExists, outputPath)
		}
		if err := os.Remove(outputPath); err != nil {
			return fmt.Errorf("failed to remove existing output %s: %w", outputPath, err)
		}
	}

	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output %s: %w", outputPath, err)
	}
	defer output.Close()

	archive := zip.NewWriter(output)
	registerDeflate(archive)

	if err := writeTableOfContents(archive, apkSet); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.Default(int64(len(apkSet.Apks)), "writing apks")
	}
	for _, apk := range apkSet.Apks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeSplitApk(archive, apk); err != nil {
			return err
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	if err := archive.Close(); err != nil {
		return fmt.Errorf("failed to finalize output %s: %w", outputPath, err)
	}
	log.Debugf("wrote %d apks to %s", len(apkSet.Apks), outputPath)
	return nil
}

func registerDeflate(archive *zip.Writer) {
	archive.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
}

func writeTableOfContents(archive *zip.Writer, apkSet domain.ApkSet) error {
	entry, err := archive.CreateHeader(&zip.FileHeader{
		Name:   tocPath,
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tocPath, err)
	}
	encoder := json.NewEncoder(entry)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(buildTableOfContents(apkSet)); err != nil {
		return fmt.Errorf("failed to write %s: %w", tocPath, err)
	}
	return nil
}

// writeSplitApk serializes one split as a nested archive. The inner archive
// is stored rather than re-deflated; its own entries already carry the split's
// compression decisions.
func writeSplitApk(archive *zip.Writer, apk domain.SplitApk) error {
	var buffer bytes.Buffer
	inner := zip.NewWriter(&buffer)
	registerDeflate(inner)

	for _, entry := range apk.Entries {
		method := zip.Deflate
		if entry.ForceUncompressed {
			method = zip.Store
		}
		target, err := inner.CreateHeader(&zip.FileHeader{
			Name:   entry.Path,
			Method: method,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to %s: %w", entry.Path, apk.FileName(), err)
		}
		if err := copyEntryContent(target, entry); err != nil {
			return fmt.Errorf("failed to write %s into %s: %w", entry.Path, apk.FileName(), err)
		}
	}
	if err := inner.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", apk.FileName(), err)
	}

	outer, err := archive.CreateHeader(&zip.FileHeader{
		Name:   "splits/" + apk.FileName(),
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("failed to create splits/%s: %w", apk.FileName(), err)
	}
	if _, err := outer.Write(buffer.Bytes()); err != nil {
		return fmt.Errorf("failed to store splits/%s: %w", apk.FileName(), err)
	}
	return nil
}

func copyEntryContent(target io.Writer, entry domain.ModuleEntry) error {
	reader, err := entry.Content.Open()
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = io.Copy(target, reader)
	return err
}
