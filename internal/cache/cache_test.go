package cache

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddiville/sheets/internal/sheet"
)

var (
	ratingKey = Key{ID: "s-1", Kind: sheet.KindRating}
	orderKey  = Key{ID: "s-1", Kind: sheet.KindUpcomingOrder}
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, ratingKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, ratingKey, []byte(`{"sections":[]}`)))
	got, ok, err := s.Get(ctx, ratingKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"sections":[]}`, string(got))

	_, ok, err = s.Get(ctx, orderKey)
	require.NoError(t, err)
	assert.False(t, ok, "same id, other kind must miss")

	require.NoError(t, s.Put(ctx, ratingKey, []byte(`{"sections":[1]}`)))
	got, _, err = s.Get(ctx, ratingKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sections":[1]}`, string(got))

	require.NoError(t, s.Delete(ctx, ratingKey))
	_, ok, err = s.Get(ctx, ratingKey)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, s.Delete(ctx, ratingKey))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory(0))
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Put(ctx, ratingKey, []byte(`{}`)))
	_, ok, _ := m.Get(ctx, ratingKey)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = m.Get(ctx, ratingKey)
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestMemory_ExpiredGetKeepsFreshPut(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }
	require.NoError(t, m.Put(ctx, ratingKey, []byte(`"old"`)))
	now = now.Add(2 * time.Minute)

	// The clock read between Get's read and write locks stores a new value.
	replaced := false
	m.now = func() time.Time {
		if !replaced {
			replaced = true
			require.NoError(t, m.Put(ctx, ratingKey, []byte(`"new"`)))
		}
		return now
	}

	_, ok, err := m.Get(ctx, ratingKey)
	require.NoError(t, err)
	assert.False(t, ok, "the expired value is not served")
	require.True(t, replaced)

	got, ok, err := m.Get(ctx, ratingKey)
	require.NoError(t, err)
	require.True(t, ok, "the fresh value survives")
	assert.Equal(t, `"new"`, string(got))
}

func TestMemory_CopiesPayload(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	in := []byte(`{"a":1}`)
	require.NoError(t, m.Put(ctx, ratingKey, in))
	in[2] = 'b'

	got, _, _ := m.Get(ctx, ratingKey)
	assert.Equal(t, `{"a":1}`, string(got))
}

func newTestSQLite(t *testing.T, ttl time.Duration) *SQLite {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	s := NewSQLite(db, ttl)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite(t *testing.T) {
	exerciseStore(t, newTestSQLite(t, 0))
}

func TestSQLite_ExpiryAndPurge(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s := newTestSQLite(t, time.Hour)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, ratingKey, []byte(`{}`)))
	require.NoError(t, s.Put(ctx, orderKey, []byte(`{}`)))
	_, ok, err := s.Get(ctx, ratingKey)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok, err = s.Get(ctx, ratingKey)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSQLite_MigrateIsIdempotent(t *testing.T) {
	s := newTestSQLite(t, 0)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	r := NewRedis(addr, "", db, time.Minute)
	t.Cleanup(func() { r.Close() })
	require.NoError(t, r.Ping(context.Background()))
	exerciseStore(t, r)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Options{Backend: BackendSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Backend: "memcached"})
	assert.Error(t, err)
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "rating:s-1", ratingKey.String())
}

func TestJanitor_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Put(ctx, ratingKey, []byte(`{}`)))
	now = now.Add(30 * time.Second)
	require.NoError(t, m.Put(ctx, orderKey, []byte(`{}`)))
	now = now.Add(45 * time.Second)

	j := NewJanitor(m, time.Minute)
	require.NotNil(t, j)
	assert.Equal(t, int64(1), j.Sweep(ctx))
	assert.Equal(t, 1, m.Len())
	assert.Zero(t, j.Sweep(ctx))
}

func TestNewJanitor_SkipsStoresWithoutPurge(t *testing.T) {
	r := NewRedis("localhost:0", "", 0, time.Minute)
	t.Cleanup(func() { r.Close() })
	assert.Nil(t, NewJanitor(r, time.Minute))
	assert.Nil(t, NewJanitor(NewMemory(0), 0))
}
