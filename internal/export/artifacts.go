package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArtifactStore keeps exported files and hands out download links.
type ArtifactStore interface {
	Store(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Region skips the bucket location lookup when set.
	Region string
	Expiry time.Duration
}

type MinioArtifacts struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func NewMinioArtifacts(cfg MinioConfig) (*MinioArtifacts, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &MinioArtifacts{client: client, bucket: cfg.Bucket, expiry: expiry}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (m *MinioArtifacts) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// Store uploads data and returns a presigned download URL.
func (m *MinioArtifacts) Store(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	return m.PresignedURL(ctx, objectName)
}

func (m *MinioArtifacts) PresignedURL(ctx context.Context, objectName string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, m.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	return u.String(), nil
}

// ObjectName files an export under its document id.
func ObjectName(documentID, filename string, now time.Time) string {
	if documentID == "" {
		documentID = "unsaved"
	}
	return path.Join("exports", documentID, fmt.Sprintf("%d-%s", now.UnixMilli(), filename))
}
