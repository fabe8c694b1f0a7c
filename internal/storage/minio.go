package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ErrDisabled is returned by DisabledStore
var ErrDisabled = errors.New("photo storage is not configured")

// StoredObject describes an uploaded photo
type StoredObject struct {
	Key string
	URL string
}

type PhotoStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (*StoredObject, error)
	Delete(ctx context.Context, key string) error
}

type MinioStore struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewMinioStore connects and makes sure the bucket exists
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, log *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for %s: %w", endpoint, err)
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	log.Info("photo storage ready", zap.String("endpoint", endpoint), zap.String("bucket", bucket))
	return &MinioStore{client: client, bucket: bucket, log: log.Named("storage")}, nil
}

// ObjectKey builds photos/<adID>/<uuid><ext>, keeping the lower-cased extension of the upload
func ObjectKey(adID uuid.UUID, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("photos/%s/%s%s", adID, uuid.New(), ext)
}

func (s *MinioStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (*StoredObject, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	s.log.Info("photo uploaded", zap.String("key", info.Key), zap.Int64("size", info.Size))

	return &StoredObject{
		Key: key,
		URL: fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, key),
	}, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// DisabledStore rejects uploads when MINIO_ENDPOINT is unset
type DisabledStore struct{}

func (DisabledStore) Upload(context.Context, string, string, io.Reader, int64) (*StoredObject, error) {
	return nil, ErrDisabled
}

func (DisabledStore) Delete(context.Context, string) error { return nil }
