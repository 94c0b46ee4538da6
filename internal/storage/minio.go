package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jorgelunams/contratospoc/internal/common"
)

// ErrExists is returned by Create when the object is already present.
var ErrExists = errors.New("object already exists")

type Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Region     string
	UseSSL     bool
	SignExpiry time.Duration
}

// Store reads and writes objects in an S3-compatible store. Containers map
// to buckets.
type Store struct {
	client *minio.Client
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SignExpiry <= 0 {
		cfg.SignExpiry = 60 * time.Minute
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &Store{client: client, cfg: cfg, logger: logger}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *Store) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		s.logger.Info("storage.bucket.created", "bucket", bucket)
	}
	return nil
}

// Open returns the object body. A missing object is reported as
// common.ErrNotFound.
func (s *Store) Open(ctx context.Context, container, name string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, container, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap("get", container, name, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the first read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, s.wrap("get", container, name, err)
	}
	return obj, nil
}

func (s *Store) Put(ctx context.Context, container, name string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, container, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return s.wrap("put", container, name, err)
	}
	s.logger.Debug("storage.put.ok", "bucket", container, "object", name, "bytes", len(data))
	return nil
}

// Create writes the object only when no object with that name exists. It
// returns ErrExists when the store rejects the write on that precondition.
func (s *Store) Create(ctx context.Context, container, name string, data []byte, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	opts.SetMatchETagExcept("*")
	_, err := s.client.PutObject(ctx, container, name, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "PreconditionFailed" {
			return fmt.Errorf("create %s/%s: %w", container, name, ErrExists)
		}
		return s.wrap("create", container, name, err)
	}
	s.logger.Debug("storage.create.ok", "bucket", container, "object", name)
	return nil
}

// Exists reports whether the object is present.
func (s *Store) Exists(ctx context.Context, container, name string) (bool, error) {
	_, err := s.client.StatObject(ctx, container, name, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, s.wrap("stat", container, name, err)
}

// PresignedURL returns a time-limited GET URL for the object.
func (s *Store) PresignedURL(ctx context.Context, container, name string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, container, name, s.cfg.SignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

func (s *Store) wrap(op, container, name string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s %s/%s: %w", op, container, name, common.ErrNotFound)
	}
	return fmt.Errorf("%s %s/%s: %w", op, container, name, err)
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		resp = minio.ToErrorResponse(err)
	}
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return resp.StatusCode == http.StatusNotFound
}
