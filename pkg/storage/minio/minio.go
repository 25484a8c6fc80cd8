package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/wahid18-maqs/blood-test-analyser/config"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

// MinioStorage keeps uploads under an optional key prefix of one bucket.
type MinioStorage struct {
	client *minio.Client
	bucket string
	prefix string
	logger logger.Logger
}

func NewMinioStorage(ctx context.Context, cfg config.MinioConfig, log logger.Logger) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.BucketName, err)
		}
		log.Info("Created MinIO bucket", logger.String("bucket", cfg.BucketName))
	}

	return &MinioStorage{
		client: client,
		bucket: cfg.BucketName,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: log,
	}, nil
}

func (m *MinioStorage) objectName(key string) string {
	if m.prefix == "" {
		return key
	}
	return path.Join(m.prefix, key)
}

func (m *MinioStorage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	info, err := m.client.PutObject(ctx, m.bucket, m.objectName(key), reader, -1, minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		m.logger.Error("Failed to upload artifact to MinIO",
			logger.String("bucket", m.bucket),
			logger.String("key", key),
			logger.Error(err),
		)
		return "", fmt.Errorf("failed to store artifact: %w", err)
	}
	m.logger.Debug("Stored artifact", logger.String("key", key), logger.Int64("size", info.Size))
	return key, nil
}

// Get stats the object first so a missing key fails here rather than on first Read.
func (m *MinioStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	name := m.objectName(key)
	if _, err := m.client.StatObject(ctx, m.bucket, name, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("failed to stat artifact %s: %w", key, err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", key, err)
	}
	return obj, nil
}

func (m *MinioStorage) Delete(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, m.objectName(key), minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to delete artifact %s: %w", key, err)
	}
	return nil
}

// CleanupBefore removes every object under the prefix last modified before threshold,
// batching the deletes through RemoveObjects.
func (m *MinioStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	listOpts := minio.ListObjectsOptions{Recursive: true}
	if m.prefix != "" {
		listOpts.Prefix = m.prefix + "/"
	}

	expired := make(chan minio.ObjectInfo)
	var listErr error
	go func() {
		defer close(expired)
		for obj := range m.client.ListObjects(ctx, m.bucket, listOpts) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			if obj.LastModified.Before(threshold) {
				select {
				case expired <- obj:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var errs []error
	for rerr := range m.client.RemoveObjects(ctx, m.bucket, expired, minio.RemoveObjectsOptions{}) {
		m.logger.Warn("Failed to delete expired artifact",
			logger.String("key", rerr.ObjectName),
			logger.Error(rerr.Err),
		)
		errs = append(errs, rerr.Err)
	}
	if listErr != nil {
		errs = append(errs, fmt.Errorf("failed to list artifacts: %w", listErr))
	}
	return errors.Join(errs...)
}
