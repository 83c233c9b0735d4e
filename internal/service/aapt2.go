package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/aabtools/apkset/internal/domain"
	"github.com/aabtools/apkset/internal/sizes"
)

// Aapt2Command invokes the external optimizing resource compiler binary. The
// tool is a black box: it takes the module's resource table plus the target
// constraints and returns optimized bytes; any failure is an ordinary unit
// failure.
type Aapt2Command struct {
	Path string
}

func (c Aapt2Command) Compile(ctx context.Context, resourceTable domain.ModuleEntry, config sizes.SizeConfiguration) (domain.ModuleEntry, error) {
	tmpDir, err := os.MkdirTemp("", "apkset-aapt2-")
	if err != nil {
		return domain.ModuleEntry{}, err
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "in.resources")
	outPath := filepath.Join(tmpDir, "out.resources")

	reader, err := resourceTable.Content.Open()
	if err != nil {
		return domain.ModuleEntry{}, err
	}
	inFile, err := os.Create(inPath)
	if err != nil {
		reader.Close()
		return domain.ModuleEntry{}, err
	}
	_, copyErr := io.Copy(inFile, reader)
	reader.Close()
	if closeErr := inFile.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return domain.ModuleEntry{}, copyErr
	}

	args := []string{"optimize", "-o", outPath}
	if config.ScreenDensity != "" {
		args = append(args, "--target-densities", config.ScreenDensity)
	}
	args = append(args, inPath)

	log.Debugf("invoking resource compiler: %s %v", c.Path, args)
	command := exec.CommandContext(ctx, c.Path, args...)
	if output, err := command.CombinedOutput(); err != nil {
		return domain.ModuleEntry{}, fmt.Errorf("resource compiler failed: %w: %s", err, output)
	}

	compiled, err := os.ReadFile(outPath)
	if err != nil {
		return domain.ModuleEntry{}, err
	}
	return domain.ModuleEntry{
		Path:    resourceTable.Path,
		Content: domain.NewBytesSource(compiled),
	}, nil
}
