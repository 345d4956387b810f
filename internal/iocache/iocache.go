// Package iocache persists cached lookups and audit history.
package iocache

import (
	"sync"

	"github.com/huangsam/auditor/internal/contract"
)

// CacheStoreManager manages the cache and audit store instances.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	cache        contract.CacheStore
	audit        contract.AuditStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetCacheStore returns the key/value CacheStore.
func (mgr *CacheStoreManager) GetCacheStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.cache
}

// GetAuditStore returns the audit history store.
func (mgr *CacheStoreManager) GetAuditStore() contract.AuditStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.audit
}
