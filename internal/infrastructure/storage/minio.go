// Package storage implements the object storage adapter for the practicas hub.
// Comprobantes, anexos and deliverables live in a MinIO/S3 bucket; the domain
// only ever sees the opaque reference this package hands back.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fesc-practicas/practicas-hub/pkg/circuitbreaker"
	"github.com/fesc-practicas/practicas-hub/pkg/logger"
	"github.com/fesc-practicas/practicas-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds object storage configuration.
type Config struct {
	// Endpoint is the MinIO/S3 endpoint, host:port without scheme.
	Endpoint string

	// AccessKey is the storage access key.
	AccessKey string

	// SecretKey is the storage secret key.
	SecretKey string

	// Bucket is the bucket holding all uploaded documents.
	Bucket string

	// Region passed on bucket creation.
	Region string

	// UseSSL enables TLS for the storage connection.
	UseSSL bool

	// PresignExpiry is how long download links stay valid.
	PresignExpiry time.Duration

	// MaxFileSize caps uploads in bytes.
	MaxFileSize int64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint:      "localhost:9000",
		Bucket:        "practicas-documentos",
		Region:        "us-east-1",
		UseSSL:        false,
		PresignExpiry: 15 * time.Minute,
		MaxFileSize:   10 << 20, // 10 MiB
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrFileTooLarge is returned when an upload exceeds the configured limit.
	ErrFileTooLarge = fmt.Errorf("storage: file exceeds size limit")

	// ErrInvalidRef is returned when an object reference cannot be parsed.
	ErrInvalidRef = fmt.Errorf("storage: invalid object reference")
)

// ══════════════════════════════════════════════════════════════════════════════
// OBJECT KEYS
// Keys are namespaced by concern so a bucket listing reads like the domain.
// The uuid segment keeps resubmissions from overwriting the audited original.
// ══════════════════════════════════════════════════════════════════════════════

// ComprobanteKey builds the object key for a payment receipt.
func ComprobanteKey(practicanteID, filename string) string {
	return fmt.Sprintf("comprobantes/%s/%s%s", practicanteID, uuid.NewString(), path.Ext(filename))
}

// RecursoKey builds the object key for a proceso document (ARL, certificado,
// atlas, anexo, deliverable).
func RecursoKey(procesoID, tipo, filename string) string {
	return fmt.Sprintf("recursos/%s/%s/%s%s", procesoID, tipo, uuid.NewString(), path.Ext(filename))
}

// RefScheme prefixes every reference handed to the domain.
const RefScheme = "minio://"

// Ref builds the opaque reference stored by the domain for an object key.
func Ref(bucket, key string) string {
	return RefScheme + bucket + "/" + key
}

// ParseRef splits a stored reference back into bucket and key.
func ParseRef(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, RefScheme)
	if !ok {
		return "", "", ErrInvalidRef
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", ErrInvalidRef
	}
	return bucket, key, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FILE STORE
// ══════════════════════════════════════════════════════════════════════════════

// FileStore uploads and serves documents through MinIO. Writes go through a
// retrier and a circuit breaker: storage hiccups should not take the whole
// pipeline down with them.
type FileStore struct {
	client  *minio.Client
	config  Config
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewFileStore creates a MinIO-backed FileStore from the Config.
func NewFileStore(cfg Config, log *logger.Logger) (*FileStore, error) {
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("storage"))

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	breaker := circuitbreaker.StorageBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	return &FileStore{
		client:  client,
		config:  cfg,
		retrier: retry.StorageRetrier(),
		breaker: breaker,
		log:     log,
	}, nil
}

// EnsureBucket makes sure the documents bucket exists before use.
func (s *FileStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.config.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.config.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.config.Bucket, minio.MakeBucketOptions{Region: s.config.Region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.config.Bucket, err)
		}
		s.log.Info("bucket created", logger.String("bucket", s.config.Bucket))
	}
	return nil
}

// Upload stores an object and returns the opaque reference the domain keeps.
// The payload is buffered so failed attempts can be replayed; uploads here are
// receipts and course paperwork, not video.
func (s *FileStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if s.config.MaxFileSize > 0 && size > s.config.MaxFileSize {
		return "", ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, s.config.MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if s.config.MaxFileSize > 0 && int64(len(data)) > s.config.MaxFileSize {
		return "", ErrFileTooLarge
	}

	start := time.Now()
	err = s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retrier.Do(ctx, func(ctx context.Context) error {
			_, err := s.client.PutObject(ctx, s.config.Bucket, key,
				bytes.NewReader(data), int64(len(data)),
				minio.PutObjectOptions{ContentType: contentType})
			if err != nil {
				return retry.Retryable(fmt.Errorf("put object: %w", err))
			}
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	s.log.Debug("object uploaded",
		logger.String("key", key),
		logger.Int64("size", int64(len(data))),
		logger.Latency(time.Since(start)),
	)

	return Ref(s.config.Bucket, key), nil
}

// PresignedURL returns a time-limited download link for a stored reference.
func (s *FileStore) PresignedURL(ctx context.Context, ref string) (string, error) {
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}

	u, err := s.client.PresignedGetObject(ctx, bucket, key, s.config.PresignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// Remove deletes a stored object. Used when a rejected upload is replaced.
func (s *FileStore) Remove(ctx context.Context, ref string) error {
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return err
	}

	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	})
}
