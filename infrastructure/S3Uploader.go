package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader writes mood exports to one bucket, under an optional key prefix
type S3Uploader struct {
	uploader  *manager.Uploader
	bucket    string
	keyPrefix string
}

func NewS3Uploader(s3UploadClient manager.UploadAPIClient, bucket string, keyPrefix string) (S3Uploader, error) {
	if s3UploadClient == nil {
		return S3Uploader{}, errors.New("s3 upload client nil")
	}
	if bucket == "" {
		return S3Uploader{}, errors.New("bucket name is empty")
	}
	return S3Uploader{
		uploader:  manager.NewUploader(s3UploadClient),
		bucket:    bucket,
		keyPrefix: keyPrefix,
	}, nil
}

func contentType(filename string) string {
	switch path.Ext(filename) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

func (u S3Uploader) key(filename string) string {
	if u.keyPrefix == "" {
		return filename
	}
	return path.Join(u.keyPrefix, filename)
}

func (u S3Uploader) Upload(ctx context.Context, filename string, buffer *bytes.Buffer) error {
	key := u.key(filename)
	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        buffer,
		ContentType: aws.String(contentType(filename)),
	})
	if err != nil {
		return fmt.Errorf("upload failed key=[%s], bucket=[%s]: %w", key, u.bucket, err)
	}
	return nil
}
