package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

// GCSApkSetRepository publishes APK sets to a Google Cloud Storage bucket.
type GCSApkSetRepository struct {
	client     *storage.Client
	bucketName string
}

// NewGCSApkSetRepository initializes a new GCSApkSetRepository.
func NewGCSApkSetRepository(client *storage.Client, bucketName string) GCSApkSetRepository {
	return GCSApkSetRepository{
		client:     client,
		bucketName: bucketName,
	}
}

// Upload publishes an APK set archive to GCS.
func (r *GCSApkSetRepository) Upload(ctx context.Context, key string, reader io.Reader, quiet bool) (string, error) {
	writer := r.client.Bucket(r.bucketName).Object(key).NewWriter(ctx)

	seeker, ok := reader.(io.Seeker)
	var size int64 = -1
	if ok {
		if current, err := seeker.Seek(0, io.SeekCurrent); err == nil {
			if end, err := seeker.Seek(0, io.SeekEnd); err == nil {
				size = end - current
				seeker.Seek(current, io.SeekStart)
			}
		}
	}

	var proxyReader io.Reader = reader
	if !quiet {
		log.Debugf("Uploading to GCS: gs://%s/%s", r.bucketName, key)
		bar := progressbar.DefaultBytes(size, "uploading")
		pbReader := progressbar.NewReader(reader, bar)
		proxyReader = &pbReader
	}

	if _, err := io.Copy(writer, proxyReader); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to upload to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to upload to GCS: %w", err)
	}
	return fmt.Sprintf("%s/%s", r.bucketName, key), nil
}

// Exists reports whether an object is already stored under the key.
func (r *GCSApkSetRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.Bucket(r.bucketName).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat gs://%s/%s: %w", r.bucketName, key, err)
	}
	return true, nil
}

// Download fetches an APK set archive from GCS.
func (r *GCSApkSetRepository) Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
	obj := r.client.Bucket(r.bucketName).Object(key)

	reader, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to download from GCS: %w", err)
	}
	if quiet {
		return reader, nil
	}

	attrs, err := obj.Attrs(ctx)
	var bar *progressbar.ProgressBar
	if err == nil {
		bar = progressbar.DefaultBytes(attrs.Size, "downloading")
	}
	return &gcsProgressReader{r: reader, bar: bar}, nil
}

type gcsProgressReader struct {
	r   io.ReadCloser
	bar *progressbar.ProgressBar
}

func (pr *gcsProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.r.Read(p)
	if pr.bar != nil {
		pr.bar.Add(n)
	}
	return n, err
}

func (pr *gcsProgressReader) Close() error {
	return pr.r.Close()
}

// GetBucketName returns the bucket name.
func (r *GCSApkSetRepository) GetBucketName() string {
	return r.bucketName
}

// GetStorageType returns the storage type.
func (r *GCSApkSetRepository) GetStorageType() string {
	return "gcs"
}
