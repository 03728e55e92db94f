package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/config"
)

type MinIO struct {
	client *minio.Client
	bucket string
	region string
	expiry time.Duration
	links  Links
	logger zerolog.Logger
	now    func() time.Time

	ensureMu      sync.Mutex
	bucketEnsured bool
}

func NewMinIO(cfg config.StorageConfig, secret string, logger zerolog.Logger) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	m := &MinIO{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		expiry: expiry,
		links:  Links{PublicURL: cfg.PublicURL, Secret: secret},
		logger: logger,
		now:    time.Now,
	}

	// storage may come up after the API; uploads retry the bucket check
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.ensureBucket(ctx); err != nil {
		logger.Warn().Err(err).Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("object storage not ready at startup")
	} else {
		logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("connected to object storage")
	}
	return m, nil
}

func (m *MinIO) ensureBucket(ctx context.Context) error {
	m.ensureMu.Lock()
	defer m.ensureMu.Unlock()
	if m.bucketEnsured {
		return nil
	}

	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		m.logger.Info().Str("bucket", m.bucket).Msg("created bucket")
	}
	m.bucketEnsured = true
	return nil
}

func (m *MinIO) Upload(ctx context.Context, r io.Reader, size int64, filename, contentType string) (string, error) {
	if err := m.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := ObjectKey(m.now(), filename)
	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	m.logger.Debug().Str("key", key).Str("etag", info.ETag).Int64("size", size).Msg("file uploaded")

	return m.links.URLFor(key)
}

func (m *MinIO) PresignedURL(ctx context.Context, token string) (string, error) {
	key, err := m.links.KeyOf(token)
	if err != nil {
		return "", err
	}
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, m.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}
