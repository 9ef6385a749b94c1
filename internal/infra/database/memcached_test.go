package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCacheKeyIsPartitioned(t *testing.T) {
	did := "did:plc:alice"
	assert.NotEqual(t, rootCacheKey("tenant_a", did), rootCacheKey("tenant_b", did))
	assert.NotEqual(t, rootCacheKey("", did), rootCacheKey("tenant_a", did))
}

func memcachedForTest(t *testing.T) *memcache.Client {
	t.Helper()
	addr := os.Getenv("REPOINDEX_TEST_MEMCACHED_ADDR")
	if addr == "" {
		t.Skip("REPOINDEX_TEST_MEMCACHED_ADDR not set")
	}
	return NewMemcached(addr)
}

func TestRepoRootCacheFollowsUpdates(t *testing.T) {
	mc := memcachedForTest(t)
	ctx := context.Background()

	db, err := Open(ctx, Options{
		Driver:     DriverSqlite,
		SqlitePath: MemoryPath,
		RootCache:  mc,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.CreateTables(ctx))

	did := fmt.Sprintf("did:plc:cache%d", time.Now().UnixNano())
	key := rootCacheKey("", did)

	require.NoError(t, db.UpdateRepoRoot(ctx, did, "bafyreiaaa"))
	root, err := db.GetRepoRoot(ctx, did)
	require.NoError(t, err)
	assert.Equal(t, "bafyreiaaa", root)

	item, err := mc.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "bafyreiaaa", string(item.Value))

	require.NoError(t, db.UpdateRepoRoot(ctx, did, "bafyreibbb"))
	_, err = mc.Get(key)
	assert.True(t, errors.Is(err, memcache.ErrCacheMiss))

	// a fill that raced an earlier update is dropped by the next one
	db.fillRoot(did, "bafyreiaaa")
	require.NoError(t, db.UpdateRepoRoot(ctx, did, "bafyreiccc"))

	root, err = db.GetRepoRoot(ctx, did)
	require.NoError(t, err)
	assert.Equal(t, "bafyreiccc", root)
}

func TestRepoRootCacheIsolatesPartitions(t *testing.T) {
	mc := memcachedForTest(t)

	did := fmt.Sprintf("did:plc:cache%d", time.Now().UnixNano())
	a := &Database{partition: "tenant_a", rootCache: mc, log: zerolog.Nop()}
	b := &Database{partition: "tenant_b", rootCache: mc, log: zerolog.Nop()}

	a.fillRoot(did, "bafyreiaaa")

	root, ok := a.cachedRoot(did)
	require.True(t, ok)
	assert.Equal(t, "bafyreiaaa", root)

	_, ok = b.cachedRoot(did)
	assert.False(t, ok)
}
