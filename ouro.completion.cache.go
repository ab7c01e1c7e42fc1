package ouro

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CompletionCacheConfig configures a CachedCompletionService.
type CompletionCacheConfig struct {
	// TTL is how long a completion stays cached. Default: 5 minutes.
	TTL time.Duration

	// MaxEntries bounds the cache; the oldest entry is evicted first. Default: 1000.
	MaxEntries int

	// MaxResultSize skips caching results larger than this many bytes. Default: 1MB.
	MaxResultSize int
}

// DefaultCompletionCacheConfig returns the default cache configuration.
func DefaultCompletionCacheConfig() CompletionCacheConfig {
	return CompletionCacheConfig{
		TTL:           DefaultCompletionCacheTTL,
		MaxEntries:    DefaultCompletionCacheMaxEntries,
		MaxResultSize: DefaultCompletionCacheMaxResultSize,
	}
}

// CompletionCacheStats reports cache effectiveness.
type CompletionCacheStats struct {
	Hits      int64
	Misses    int64
	Shared    int64 // callers that waited on an identical in-flight request
	Evictions int64
	Entries   int
}

type completionCacheEntry struct {
	result    string
	expiresAt time.Time
	slot      *list.Element // position in order
}

// CachedCompletionService memoizes completions by document text and
// options. Identical concurrent requests share one upstream call. Errors
// are never cached.
type CachedCompletionService struct {
	next   CompletionService
	config CompletionCacheConfig
	group  singleflight.Group
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*completionCacheEntry
	order   *list.List // keys, oldest at the front
	stats   CompletionCacheStats
}

// NewCachedCompletionService wraps next with a result cache.
func NewCachedCompletionService(next CompletionService, config CompletionCacheConfig, logger *zap.Logger) *CachedCompletionService {
	d := DefaultCompletionCacheConfig()
	if config.TTL <= 0 {
		config.TTL = d.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = d.MaxEntries
	}
	if config.MaxResultSize <= 0 {
		config.MaxResultSize = d.MaxResultSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCompletionService{
		next:    next,
		config:  config,
		logger:  logger,
		entries: make(map[string]*completionCacheEntry),
		order:   list.New(),
	}
}

// Complete returns a cached completion or forwards to the wrapped service.
func (s *CachedCompletionService) Complete(ctx context.Context, text string, opts *CompletionOptions) (string, error) {
	key := completionCacheKey(text, opts)

	if result, ok := s.lookup(key); ok {
		s.logger.Debug(LogMsgCompletionCacheHit, zap.Int(LogFieldLength, len(text)))
		return result, nil
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		result, err := s.next.Complete(ctx, text, opts)
		if err != nil {
			return "", err
		}
		s.store(key, result)
		return result, nil
	})
	if shared {
		s.mu.Lock()
		s.stats.Shared++
		s.mu.Unlock()
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Stats returns a snapshot of the cache counters.
func (s *CachedCompletionService) Stats() CompletionCacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.Entries = len(s.entries)
	return stats
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s *CachedCompletionService) HitRate() float64 {
	stats := s.Stats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0
	}
	return float64(stats.Hits) / float64(total)
}

// Clear drops every cached completion.
func (s *CachedCompletionService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*completionCacheEntry)
	s.order.Init()
}

// Cleanup removes expired entries and returns how many were dropped.
func (s *CachedCompletionService) Cleanup() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			s.remove(key)
			removed++
		}
	}
	return removed
}

func (s *CachedCompletionService) lookup(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		s.stats.Misses++
		return "", false
	}
	if time.Now().After(entry.expiresAt) {
		s.remove(key)
		s.stats.Misses++
		return "", false
	}
	s.stats.Hits++
	return entry.result, true
}

func (s *CachedCompletionService) store(key, result string) {
	if len(result) > s.config.MaxResultSize {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok {
		entry.result = result
		entry.expiresAt = time.Now().Add(s.config.TTL)
		return
	}
	for len(s.entries) >= s.config.MaxEntries {
		oldest := s.order.Front()
		if oldest == nil {
			break
		}
		s.remove(oldest.Value.(string))
		s.stats.Evictions++
	}
	s.entries[key] = &completionCacheEntry{
		result:    result,
		expiresAt: time.Now().Add(s.config.TTL),
		slot:      s.order.PushBack(key),
	}
}

// remove drops key from both the map and the order; the caller holds mu
func (s *CachedCompletionService) remove(key string) {
	if entry, ok := s.entries[key]; ok {
		s.order.Remove(entry.slot)
		delete(s.entries, key)
	}
}

// completionCacheKey hashes the text together with the options that
// change the answer.
func completionCacheKey(text string, opts *CompletionOptions) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	if opts != nil {
		optsJSON, _ := json.Marshal(opts)
		h.Write(optsJSON)
	}
	return hex.EncodeToString(h.Sum(nil))
}
