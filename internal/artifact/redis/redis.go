// Package redis stores artifacts as string values in Redis or Valkey.
package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/gamerec/internal/artifact"
	"github.com/kailas-cloud/gamerec/internal/domain"
)

var _ artifact.Store = (*Store)(nil)

// Config holds connection parameters.
type Config struct {
	Addrs     []string `yaml:"addrs"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// Store keeps each artifact under <prefix><name>.
type Store struct {
	client rueidis.Client
	prefix string
	addrs  []string
}

// New connects via rueidis.
func New(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{client: client, prefix: cfg.KeyPrefix, addrs: cfg.Addrs}, nil
}

// Close shuts down the client.
func (s *Store) Close() { s.client.Close() }

func (s *Store) key(name string) string { return s.prefix + name }

// Get implements artifact.Store.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	cmd := s.client.B().Get().Key(s.key(name)).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("GET %s: %w", s.key(name), err)
	}
	return data, nil
}

// Put implements artifact.Store.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	cmd := s.client.B().Set().Key(s.key(name)).Value(rueidis.BinaryString(data)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("SET %s: %w", s.key(name), err)
	}
	return nil
}

// Exists implements artifact.Store.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	cmd := s.client.B().Exists().Key(s.key(name)).Build()
	n, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return false, fmt.Errorf("EXISTS %s: %w", s.key(name), err)
	}
	return n > 0, nil
}

// Ping implements artifact.Store.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Describe implements artifact.Store.
func (s *Store) Describe() string {
	return "redis://" + strings.Join(s.addrs, ",") + "/" + s.prefix
}
