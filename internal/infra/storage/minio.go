package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PresignExpiry > 0 returns presigned GET URLs instead of plain object URLs.
	PresignExpiry time.Duration
}

// Store mirrors artifacts into a MinIO / S3 bucket.
type Store struct {
	client        *minio.Client
	bucketName    string
	presignExpiry time.Duration
}

// New buat koneksi MinIO
func New(ctx context.Context, opts Options) (*Store, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}

	return &Store{client: cli, bucketName: opts.Bucket, presignExpiry: opts.PresignExpiry}, nil
}

// PutObject implements artifacts.BlobStore.
func (s *Store) PutObject(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	if s.presignExpiry > 0 {
		u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.presignExpiry, nil)
		if err != nil {
			return "", fmt.Errorf("presign %s: %w", key, err)
		}
		return u.String(), nil
	}
	// URL publik (jika bucket public)
	return objectURL(s.client.EndpointURL(), s.bucketName, key), nil
}

// Ping checks the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

func objectURL(endpoint *url.URL, bucket, key string) string {
	scheme := endpoint.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint.Host, bucket, strings.TrimPrefix(key, "/"))
}
