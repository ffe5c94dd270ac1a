package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/config"
)

// MinIOClient stores certificate scans in a single bucket and returns
// the object path as the stored URL.
type MinIOClient struct {
	client *minio.Client
	bucket string
	log    zerolog.Logger
}

func NewMinIOClient(cfg config.StorageConfig, log zerolog.Logger) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("bucket created")
	}

	return &MinIOClient{client: client, bucket: cfg.Bucket, log: log}, nil
}

func (m *MinIOClient) Upload(ctx context.Context, data []byte, fileName string) (string, error) {
	ext := filepath.Ext(fileName)
	objectName := fmt.Sprintf("certificate_%s_%d%s",
		uuid.NewString()[:8], time.Now().Unix(), ext)

	contentType := "application/octet-stream"
	switch strings.ToLower(ext) {
	case ".pdf":
		contentType = "application/pdf"
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	}

	_, err := m.client.PutObject(ctx, m.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	m.log.Info().Str("object", objectName).Msg("file uploaded")
	return fmt.Sprintf("/%s/%s", m.bucket, objectName), nil
}
