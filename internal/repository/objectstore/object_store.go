// Package objectstore publishes and fetches APK set archives on remote
// object storage.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectRepository is the storage surface needed for APK sets: publish a
// finished archive, fetch one back for inspection, and probe a destination
// before overwriting it.
type ObjectRepository interface {
	Upload(ctx context.Context, key string, r io.Reader, quiet bool) (string, error)
	Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	GetBucketName() string
	GetStorageType() string
}

// RepositoryType identifies an object storage provider.
type RepositoryType string

const (
	S3Type  RepositoryType = "s3"
	GCSType RepositoryType = "gcs"
)

// Destination is a parsed remote location: a bucket plus an object key.
type Destination struct {
	Type   RepositoryType
	Bucket string
	Key    string
}

// IsRemote reports whether the given output path names an object storage
// destination rather than a local file.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "gs://")
}

// ParseDestination splits a remote URI into provider, bucket and object key.
// Formats: "s3://bucket/path/to/set.apks", "gs://bucket/path/to/set.apks".
func ParseDestination(uri string) (Destination, error) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(uri), "://")
	if !ok {
		return Destination{}, fmt.Errorf("invalid destination URI: %s", uri)
	}

	var repoType RepositoryType
	switch strings.ToLower(scheme) {
	case "s3":
		repoType = S3Type
	case "gs":
		repoType = GCSType
	default:
		return Destination{}, fmt.Errorf("unsupported scheme: %s", scheme)
	}

	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return Destination{}, fmt.Errorf("destination must name a bucket and an object key: %s", uri)
	}
	return Destination{Type: repoType, Bucket: bucket, Key: key}, nil
}

// NewRepository builds a repository for the destination's provider. Provider
// clients are created on demand from ambient credentials.
func NewRepository(ctx context.Context, dest Destination) (ObjectRepository, error) {
	switch dest.Type {
	case S3Type:
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		repo := NewS3ApkSetRepository(s3.NewFromConfig(cfg), dest.Bucket)
		return &repo, nil
	case GCSType:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS client: %w", err)
		}
		repo := NewGCSApkSetRepository(client, dest.Bucket)
		return &repo, nil
	default:
		return nil, fmt.Errorf("unsupported repository type: %s", dest.Type)
	}
}
