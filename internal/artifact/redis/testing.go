package redis

import "github.com/redis/rueidis"

// NewStoreForTest creates a Store with a pre-configured client (for testing with mocks).
func NewStoreForTest(c rueidis.Client, prefix string) *Store {
	return &Store{client: c, prefix: prefix, addrs: []string{"mock"}}
}
