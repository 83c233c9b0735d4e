package apkset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	log "github.com/sirupsen/logrus"

	"github.com/aabtools/apkset/internal/domain"
	apkerrors "github.com/aabtools/apkset/internal/errors"
	"github.com/aabtools/apkset/internal/repository/objectstore"
)

// Repository writes APK sets to local files or remote object storage,
// dispatching on the output path scheme.
type Repository struct {
	writer   Writer
	newStore func(ctx context.Context, dest objectstore.Destination) (objectstore.ObjectRepository, error)
}

// NewRepository creates a new APK set Repository.
func NewRepository() Repository {
	return Repository{
		writer:   NewWriter(),
		newStore: objectstore.NewRepository,
	}
}

// WriteApkSet serializes the set to the given destination. Remote
// destinations (s3://, gs://) are staged to a temporary file and uploaded.
func (r Repository) WriteApkSet(ctx context.Context, apkSet domain.ApkSet, outputPath string, overwrite bool, quiet bool) error {
	if !objectstore.IsRemote(outputPath) {
		return r.writer.WriteApkSet(ctx, apkSet, outputPath, overwrite, quiet)
	}

	dest, err := objectstore.ParseDestination(outputPath)
	if err != nil {
		return err
	}
	store, err := r.newStore(ctx, dest)
	if err != nil {
		return err
	}

	// The same contract as for local files: an occupied destination is
	// refused unless overwrite is requested.
	if !overwrite {
		exists, err := store.Exists(ctx, dest.Key)
		if err != nil {
			return fmt.Errorf("failed to check destination %s: %w", outputPath, err)
		}
		if exists {
			return fmt.Errorf("%w: %s", apkerrors.ErrOutputExists, outputPath)
		}
	}

	staging, err := os.CreateTemp("", "apkset-*"+path.Ext(dest.Key))
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	defer os.Remove(staging.Name())
	defer staging.Close()

	// The staging file already exists, so the local write always overwrites.
	if err := r.writer.WriteApkSet(ctx, apkSet, staging.Name(), true, quiet); err != nil {
		return err
	}
	if _, err := staging.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind staging file: %w", err)
	}

	location, err := store.Upload(ctx, dest.Key, staging, quiet)
	if err != nil {
		return fmt.Errorf("failed to upload apk set to %s: %w", outputPath, err)
	}
	log.Infof("Uploaded apk set to %s://%s", store.GetStorageType(), location)
	return nil
}
