package ouro

import (
	"context"
	"sync"
	"time"
)

// StorageCacheConfig configures a CachedStorage.
type StorageCacheConfig struct {
	// TTL is how long a latest-version lookup stays cached. Default: 5 minutes.
	TTL time.Duration

	// MaxEntries bounds the cache; the least recently used name is evicted.
	// Default: 1000.
	MaxEntries int

	// NegativeTTL caches "not found" lookups. 0 disables negative caching.
	NegativeTTL time.Duration
}

// DefaultStorageCacheConfig returns the default cache configuration.
func DefaultStorageCacheConfig() StorageCacheConfig {
	return StorageCacheConfig{
		TTL:         DefaultStorageCacheTTL,
		MaxEntries:  DefaultStorageCacheMaxEntries,
		NegativeTTL: DefaultStorageCacheNegativeTTL,
	}
}

// StorageCacheStats reports the state of a CachedStorage.
type StorageCacheStats struct {
	Entries         int
	ValidEntries    int
	NegativeEntries int
}

type storageCacheEntry struct {
	doc        *StoredDocument // nil for a cached miss
	cachedAt   time.Time
	accessedAt time.Time
}

// CachedStorage wraps a DocumentStorage and caches latest-version lookups
// by name. Every write through the wrapper invalidates that name; writes
// made directly to the wrapped storage are seen after TTL.
type CachedStorage struct {
	storage DocumentStorage
	config  StorageCacheConfig

	mu      sync.Mutex
	entries map[string]*storageCacheEntry
	closed  bool
}

// NewCachedStorage wraps storage with a lookup cache.
func NewCachedStorage(storage DocumentStorage, config StorageCacheConfig) *CachedStorage {
	d := DefaultStorageCacheConfig()
	if config.TTL <= 0 {
		config.TTL = d.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = d.MaxEntries
	}
	return &CachedStorage{
		storage: storage,
		config:  config,
		entries: make(map[string]*storageCacheEntry),
	}
}

// Get returns the latest version, from cache when fresh.
func (s *CachedStorage) Get(ctx context.Context, name string) (*StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, NewStorageClosedError()
	}
	if entry, ok := s.entries[name]; ok && s.fresh(entry) {
		entry.accessedAt = time.Now()
		doc := copyStoredDocument(entry.doc)
		s.mu.Unlock()
		if doc == nil {
			return nil, NewDocumentNotFoundError(name)
		}
		return doc, nil
	}
	s.mu.Unlock()

	doc, err := s.storage.Get(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, NewStorageClosedError()
	}
	if err != nil {
		if IsNotFound(err) && s.config.NegativeTTL > 0 {
			s.put(name, nil)
		}
		return nil, err
	}
	s.put(name, doc)
	return copyStoredDocument(doc), nil
}

// GetVersion bypasses the cache.
func (s *CachedStorage) GetVersion(ctx context.Context, name string, version int) (*StoredDocument, error) {
	return s.storage.GetVersion(ctx, name, version)
}

// Save stores a new version and invalidates name.
func (s *CachedStorage) Save(ctx context.Context, doc *StoredDocument) error {
	if err := s.storage.Save(ctx, doc); err != nil {
		return err
	}
	s.Invalidate(doc.Name)
	return nil
}

// SetOutput records the output and invalidates name.
func (s *CachedStorage) SetOutput(ctx context.Context, name string, version int, output string) error {
	if err := s.storage.SetOutput(ctx, name, version, output); err != nil {
		return err
	}
	s.Invalidate(name)
	return nil
}

// Delete removes all versions and invalidates name.
func (s *CachedStorage) Delete(ctx context.Context, name string) error {
	if err := s.storage.Delete(ctx, name); err != nil {
		return err
	}
	s.Invalidate(name)
	return nil
}

// List bypasses the cache.
func (s *CachedStorage) List(ctx context.Context, query *DocumentQuery) ([]*StoredDocument, error) {
	return s.storage.List(ctx, query)
}

// Exists answers from a fresh cache entry when there is one.
func (s *CachedStorage) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, NewStorageClosedError()
	}
	if entry, ok := s.entries[name]; ok && s.fresh(entry) {
		s.mu.Unlock()
		return entry.doc != nil, nil
	}
	s.mu.Unlock()
	return s.storage.Exists(ctx, name)
}

// ListVersions bypasses the cache.
func (s *CachedStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	return s.storage.ListVersions(ctx, name)
}

// Close drops the cache and closes the wrapped storage.
func (s *CachedStorage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.entries = nil
	s.mu.Unlock()
	return s.storage.Close()
}

// Invalidate removes name from the cache.
func (s *CachedStorage) Invalidate(name string) {
	s.mu.Lock()
	delete(s.entries, name)
	s.mu.Unlock()
}

// InvalidateAll clears the cache.
func (s *CachedStorage) InvalidateAll() {
	s.mu.Lock()
	if !s.closed {
		s.entries = make(map[string]*storageCacheEntry)
	}
	s.mu.Unlock()
}

// Stats returns cache statistics.
func (s *CachedStorage) Stats() StorageCacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := StorageCacheStats{Entries: len(s.entries)}
	for _, entry := range s.entries {
		if !s.fresh(entry) {
			continue
		}
		if entry.doc == nil {
			stats.NegativeEntries++
		} else {
			stats.ValidEntries++
		}
	}
	return stats
}

// fresh reports whether entry is within its TTL. Caller holds mu.
func (s *CachedStorage) fresh(entry *storageCacheEntry) bool {
	ttl := s.config.TTL
	if entry.doc == nil {
		ttl = s.config.NegativeTTL
	}
	return time.Since(entry.cachedAt) < ttl
}

// put caches doc under name, evicting the least recently used entry when
// full. Caller holds mu.
func (s *CachedStorage) put(name string, doc *StoredDocument) {
	if _, exists := s.entries[name]; !exists && len(s.entries) >= s.config.MaxEntries {
		var oldestName string
		var oldest time.Time
		for n, entry := range s.entries {
			if oldestName == "" || entry.accessedAt.Before(oldest) {
				oldestName, oldest = n, entry.accessedAt
			}
		}
		delete(s.entries, oldestName)
	}

	now := time.Now()
	s.entries[name] = &storageCacheEntry{
		doc:        copyStoredDocument(doc),
		cachedAt:   now,
		accessedAt: now,
	}
}
