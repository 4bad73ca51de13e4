// Package cache stores fetched sheet payloads keyed by (id, kind) so a sheet
// reopened later skips the network. Payloads are stored as raw JSON and are
// validated again on every open.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/oddiville/sheets/internal/sheet"
)

// Key identifies a cached payload.
type Key struct {
	ID   string
	Kind sheet.Kind
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.ID
}

// Store is the interface for reading and writing cached payloads.
type Store interface {
	// Get returns the payload for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key Key) ([]byte, bool, error)

	// Put stores payload under key, replacing any earlier value.
	Put(ctx context.Context, key Key, payload []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error

	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend   Backend
	DSN       string
	RedisAddr string
	RedisDB   int
	TTL       time.Duration
}

// Open builds the configured Store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemory(opts.TTL), nil
	case BackendSQLite:
		return OpenSQLite(ctx, opts.DSN, opts.TTL)
	case BackendRedis:
		r := NewRedis(opts.RedisAddr, "", opts.RedisDB, opts.TTL)
		if err := r.Ping(ctx); err != nil {
			r.Close()
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
