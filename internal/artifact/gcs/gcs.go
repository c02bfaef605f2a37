// Package gcs stores artifacts as objects in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/kailas-cloud/gamerec/internal/artifact"
	"github.com/kailas-cloud/gamerec/internal/domain"
)

var _ artifact.Store = (*Store)(nil)

// Config holds bucket coordinates and client credentials.
type Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`

	// CredentialsFile is a service account key; empty uses application default credentials.
	CredentialsFile string `yaml:"credentials_file"`

	// EmulatorHost points the client at a local GCS emulator without authentication.
	EmulatorHost string `yaml:"emulator_host"`
}

// Validate checks required fields.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("gcs bucket is required")
	}
	return nil
}

// Store reads and writes artifacts under gs://<bucket>/<prefix>/.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// New creates a storage client for cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var opts []option.ClientOption
	switch {
	case cfg.EmulatorHost != "":
		if err := os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(cfg.EmulatorHost, "/")); err != nil {
			return nil, fmt.Errorf("set emulator host: %w", err)
		}
		opts = append(opts, option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(storage.ScopeReadWrite))
	default:
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		name:   cfg.Bucket,
		prefix: cleanPrefix(cfg.Prefix),
	}, nil
}

// Close releases the client.
func (s *Store) Close() error { return s.client.Close() }

func cleanPrefix(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}

func objectName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Get implements artifact.Store.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	r, err := s.bucket.Object(objectName(s.prefix, name)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, domain.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer r.Close() //nolint:errcheck // read-only

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Put implements artifact.Store.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	w := s.bucket.Object(objectName(s.prefix, name)).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(data); err != nil {
		w.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", name, err)
	}
	return nil
}

// Exists implements artifact.Store.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.bucket.Object(objectName(s.prefix, name)).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return true, nil
}

// Ping fetches the bucket attributes.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %s: %w", s.name, err)
	}
	return nil
}

// Describe implements artifact.Store.
func (s *Store) Describe() string {
	return "gs://" + objectName(s.name, s.prefix)
}
