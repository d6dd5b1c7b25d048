// Package minio implements the storage port over MinIO and other
// S3-compatible object stores.
package minio

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/time/rate"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

// Ensure Storage implements the interface.
var _ driven.Storage = (*Storage)(nil)

// Config holds the connection settings for one S3-compatible backend.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool

	// RequestsPerSecond throttles API calls. Zero means unlimited.
	RequestsPerSecond float64
}

// Storage serves a managed file tree inside one bucket prefix. Object
// writes on S3-compatible stores are atomic per key, which satisfies
// the port's visibility requirement without temp files.
type Storage struct {
	name    string
	client  *minio.Client
	bucket  string
	prefix  string
	limiter *rate.Limiter
}

// New connects a MinIO storage backend.
func New(name string, cfg Config) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Endpoint, err)
	}

	s := &Storage{
		name:   name,
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}
	return s, nil
}

// Backend returns the configured backend name.
func (s *Storage) Backend() string {
	return s.name
}

// List returns the objects under a path prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]driven.ObjectInfo, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	var objects []driven.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing bucket %s: %w", s.bucket, obj.Err)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(obj.Key, s.prefix), "/")
		if rel == "" {
			continue
		}
		objects = append(objects, driven.ObjectInfo{
			Path:    rel,
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}
	return objects, nil
}

// Read returns the full content of an object.
func (s *Storage) Read(ctx context.Context, p string) ([]byte, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.key(p), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", p, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", p, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

// Write stores an object.
func (s *Storage) Write(ctx context.Context, p string, data []byte) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.bucket, s.key(p),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("putting %s: %w", p, err)
	}
	return nil
}

// Exists reports whether an object is present.
func (s *Storage) Exists(ctx context.Context, p string) (bool, error) {
	if err := s.wait(ctx); err != nil {
		return false, err
	}

	_, err := s.client.StatObject(ctx, s.bucket, s.key(p), minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking %s: %w", p, err)
	}
	return true, nil
}

// Hash streams the object through SHA-256. S3 ETags are not usable here
// because multipart uploads change their meaning.
func (s *Storage) Hash(ctx context.Context, p string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.key(p), minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("getting %s: %w", p, err)
	}
	defer obj.Close()

	h := sha256.New()
	if _, err := io.Copy(h, obj); err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%s: %w", p, domain.ErrNotFound)
		}
		return "", fmt.Errorf("hashing %s: %w", p, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Delete removes an object. Missing objects are not an error.
func (s *Storage) Delete(ctx context.Context, p string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	err := s.client.RemoveObject(ctx, s.bucket, s.key(p), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("removing %s: %w", p, err)
	}
	return nil
}

func (s *Storage) key(p string) string {
	return path.Join(s.prefix, p)
}

func (s *Storage) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}
