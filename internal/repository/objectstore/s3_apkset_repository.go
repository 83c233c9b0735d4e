package objectstore

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/schollz/progressbar/v3"
)

// S3ApkSetRepository publishes APK sets to an S3 bucket.
type S3ApkSetRepository struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucketName string
}

// NewS3ApkSetRepository initializes a new S3ApkSetRepository.
func NewS3ApkSetRepository(client *s3.Client, bucketName string) S3ApkSetRepository {
	return S3ApkSetRepository{
		client:     client,
		uploader:   manager.NewUploader(client),
		bucketName: bucketName,
	}
}

// GetBucketName returns the bucket name.
func (r *S3ApkSetRepository) GetBucketName() string {
	return r.bucketName
}

// GetStorageType returns the object store type.
func (r *S3ApkSetRepository) GetStorageType() string {
	return "s3"
}

// Upload publishes an APK set archive to S3. Large archives are uploaded in
// parts by the transfer manager.
func (r *S3ApkSetRepository) Upload(ctx context.Context, key string, reader io.Reader, quiet bool) (string, error) {
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
		bar := progressbar.DefaultBytes(size, "uploading")
		pbReader := progressbar.NewReader(reader, bar)
		proxyReader = &pbReader
	}

	_, err := r.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
		Body:   proxyReader,
	})
	if err != nil {
		return "", err
	}
	return r.bucketName + "/" + key, nil
}

// Exists reports whether an object is already stored under the key.
func (r *S3ApkSetRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Download fetches an APK set archive from S3.
func (r *S3ApkSetRepository) Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}

	if quiet {
		return result.Body, nil
	}
	size := result.ContentLength
	bar := progressbar.DefaultBytes(*size, "downloading")
	proxyReader := progressbar.NewReader(result.Body, bar)
	return &progressReaderCloser{Reader: &proxyReader, Closer: result.Body}, nil
}

type progressReaderCloser struct {
	io.Reader
	io.Closer
}
