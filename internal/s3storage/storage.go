// Package s3storage wraps the MinIO/S3 buckets for photos and archived
// reports.
package s3storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dharsanguruparan/Previo/internal/config"
)

// Storage wraps MinIO/S3 interactions for photos and PDF reports.
type Storage struct {
	client        *minio.Client
	photosBucket  string
	reportsBucket string
	region        string
	publicBase    string
}

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{
		client:        client,
		photosBucket:  cfg.PhotosBucket,
		reportsBucket: cfg.ReportsBucket,
		region:        cfg.S3Region,
		publicBase:    strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

// EnsureBuckets creates missing buckets. Photos are served by public URL, so
// that bucket gets an anonymous read policy.
func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.photosBucket, s.reportsBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
				return fmt.Errorf("make bucket %s: %w", bucket, err)
			}
		}
	}
	if err := s.client.SetBucketPolicy(ctx, s.photosBucket, fmt.Sprintf(publicReadPolicy, s.photosBucket)); err != nil {
		return fmt.Errorf("set policy on %s: %w", s.photosBucket, err)
	}
	return nil
}

// PutPhoto uploads a photo. Existing keys are never overwritten by callers
// since every key ends in a fresh UUID.
func (s *Storage) PutPhoto(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType, CacheControl: "max-age=3600"}
	if _, err := s.client.PutObject(ctx, s.photosBucket, key, r, size, opts); err != nil {
		return fmt.Errorf("upload photo: %w", err)
	}
	return nil
}

// RemovePhoto deletes a photo blob.
func (s *Storage) RemovePhoto(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.photosBucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}

// PhotoURL is the public URL of a photo key.
func (s *Storage) PhotoURL(key string) string {
	return s.publicBase + "/" + s.photosBucket + "/" + key
}

// ListPhotos lists photo keys under prefix.
func (s *Storage) ListPhotos(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.photosBucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list photos: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// PutReport stores a rendered PDF report.
func (s *Storage) PutReport(ctx context.Context, key string, data []byte) error {
	opts := minio.PutObjectOptions{ContentType: "application/pdf"}
	if _, err := s.client.PutObject(ctx, s.reportsBucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	return nil
}

// GetReport fetches an archived report.
func (s *Storage) GetReport(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.reportsBucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	defer obj.Close()
	buf, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return buf, nil
}

// PresignReport returns a signed GET URL for an archived report.
func (s *Storage) PresignReport(ctx context.Context, key string, ttl time.Duration) (string, error) {
	params := url.Values{}
	if i := strings.LastIndex(key, "/"); i >= 0 {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", key[i+1:]))
	}
	u, err := s.client.PresignedGetObject(ctx, s.reportsBucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign report: %w", err)
	}
	return u.String(), nil
}
