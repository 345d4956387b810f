package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals() {
	initOnce = sync.Once{}  // Reset for test
	closeOnce = sync.Once{} // Reset for test
	Manager = &CacheStoreManager{}
}

func TestInitStores(t *testing.T) {
	t.Run("single setup", func(t *testing.T) {
		resetGlobals()
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		auditPath := filepath.Join(dir, "history.db")

		err := InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, auditPath)
		require.NoError(t, err)
		assert.NotNil(t, Manager.GetCacheStore())
		assert.NotNil(t, Manager.GetAuditStore())

		CloseStores()

		_, err = os.Stat(cachePath)
		assert.NoError(t, err, "cache database file should be created")
		_, err = os.Stat(auditPath)
		assert.NoError(t, err, "audit database file should be created")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetGlobals()
		cachePath := filepath.Join(t.TempDir(), "cache.db")

		// Multiple initializations should be safe (sync.Once)
		assert.NoError(t, InitStores(schema.SQLiteBackend, cachePath, "", ""))
		first := Manager.GetCacheStore()
		assert.NoError(t, InitStores(schema.SQLiteBackend, cachePath, "", ""))
		assert.Same(t, first, Manager.GetCacheStore())
		assert.Nil(t, Manager.GetAuditStore())

		// Multiple closes should be safe (sync.Once)
		CloseStores()
		CloseStores()
	})

	t.Run("none backend", func(t *testing.T) {
		resetGlobals()
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		assert.NotNil(t, Manager.GetCacheStore())
		assert.NotNil(t, Manager.GetAuditStore())
		CloseStores()
	})

	t.Run("audit failure closes cache", func(t *testing.T) {
		resetGlobals()
		cachePath := filepath.Join(t.TempDir(), "cache.db")
		err := InitStores(schema.SQLiteBackend, cachePath, schema.RedisBackend, "redis://localhost:6379")
		assert.Error(t, err)
		assert.Nil(t, Manager.GetCacheStore())
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetGlobals()
	require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
	defer CloseStores()

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			assert.NotNil(t, Manager.GetCacheStore())
			assert.NotNil(t, Manager.GetAuditStore())
		})
	}
	wg.Wait()
}

func TestClearCache(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewCacheStore(CacheTable, schema.SQLiteBackend, path)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "nope.db"), ""))
	})

	t.Run("sqlite empty path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("none", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.DatabaseBackend("mongo"), "", ""))
	})
}

func TestClearAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewAuditStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearAudit(schema.SQLiteBackend, path, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ClearAudit(schema.NoneBackend, "", ""))
	assert.Error(t, ClearAudit(schema.RedisBackend, "", ""))
}
