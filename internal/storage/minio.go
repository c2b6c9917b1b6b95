package storage

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/your-org/icg/internal/config"
)

// ArchiveUploader pushes finished export archives to an S3-compatible
// bucket so they survive local data-root cleanup.
type ArchiveUploader struct {
	client *minio.Client
	bucket string
}

func NewArchiveUploader(cfg config.MinIOConfig) (*ArchiveUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &ArchiveUploader{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (u *ArchiveUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// Upload stores the archive under exports/<name> and returns the object key.
func (u *ArchiveUploader) Upload(ctx context.Context, archivePath string) (string, error) {
	key := "exports/" + filepath.Base(archivePath)
	_, err := u.client.FPutObject(ctx, u.bucket, key, archivePath, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return "", fmt.Errorf("upload archive %s: %w", key, err)
	}
	return key, nil
}

// PresignedURL returns a time-limited download link for an uploaded archive.
func (u *ArchiveUploader) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	link, err := u.client.PresignedGetObject(ctx, u.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return link.String(), nil
}
