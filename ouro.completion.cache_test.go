package ouro

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedCompletionService_Memoizes(t *testing.T) {
	svc := &recordingCompleter{}
	cached := NewCachedCompletionService(svc, DefaultCompletionCacheConfig(), nil)
	ctx := context.Background()

	a1, err := cached.Complete(ctx, "same", nil)
	require.NoError(t, err)
	a2, err := cached.Complete(ctx, "same", nil)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Len(t, svc.Calls(), 1)

	// options are part of the key
	b, err := cached.Complete(ctx, "same", &CompletionOptions{Model: "other"})
	require.NoError(t, err)
	assert.NotEqual(t, a1, b)
	assert.Len(t, svc.Calls(), 2)

	stats := cached.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 2, stats.Entries)
	assert.InDelta(t, 1.0/3.0, cached.HitRate(), 1e-9)
}

func TestCachedCompletionService_ErrorsNotCached(t *testing.T) {
	fail := true
	svc := &recordingCompleter{respond: func(string) (string, error) {
		if fail {
			return "", errors.New("down")
		}
		return "up", nil
	}}
	cached := NewCachedCompletionService(svc, DefaultCompletionCacheConfig(), nil)

	_, err := cached.Complete(context.Background(), "x", nil)
	require.Error(t, err)

	fail = false
	out, err := cached.Complete(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "up", out)
	assert.Len(t, svc.Calls(), 2)
}

func TestCachedCompletionService_ExpiryAndCleanup(t *testing.T) {
	svc := &recordingCompleter{}
	cached := NewCachedCompletionService(svc, CompletionCacheConfig{TTL: time.Nanosecond}, nil)

	_, err := cached.Complete(context.Background(), "x", nil)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	assert.Equal(t, 1, cached.Cleanup())
	assert.Equal(t, 0, cached.Stats().Entries)
}

func TestCachedCompletionService_EvictionAndSize(t *testing.T) {
	svc := &recordingCompleter{}
	cached := NewCachedCompletionService(svc, CompletionCacheConfig{MaxEntries: 2, MaxResultSize: 6}, nil)
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c"} {
		_, err := cached.Complete(ctx, text, nil)
		require.NoError(t, err)
	}
	stats := cached.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(1), stats.Evictions)

	// results over MaxResultSize are returned but not stored
	big := NewCachedCompletionService(&recordingCompleter{respond: func(string) (string, error) {
		return "too long to cache", nil
	}}, CompletionCacheConfig{MaxResultSize: 4}, nil)
	_, err := big.Complete(ctx, "x", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, big.Stats().Entries)

	cached.Clear()
	assert.Equal(t, 0, cached.Stats().Entries)
}

func TestCachedCompletionService_EvictionOrderAfterExpiry(t *testing.T) {
	cached := NewCachedCompletionService(&recordingCompleter{}, CompletionCacheConfig{TTL: time.Hour, MaxEntries: 2}, nil)
	expire := func(key string) {
		cached.mu.Lock()
		defer cached.mu.Unlock()
		cached.entries[key].expiresAt = time.Now().Add(-time.Second)
	}
	has := func(key string) bool {
		cached.mu.Lock()
		defer cached.mu.Unlock()
		_, ok := cached.entries[key]
		return ok
	}

	// expired keys leave the eviction order too
	for i := range 100 {
		key := fmt.Sprintf("k%d", i)
		cached.store(key, "r")
		expire(key)
		require.Equal(t, 1, cached.Cleanup())
	}
	assert.Equal(t, 0, cached.Stats().Entries)
	assert.Equal(t, 0, cached.order.Len())

	// a key stored again after expiring counts as the newest
	cached.store("a", "r")
	expire("a")
	require.Equal(t, 1, cached.Cleanup())
	cached.store("b", "r")
	cached.store("a", "r")
	cached.store("c", "r")

	assert.False(t, has("b"))
	assert.True(t, has("a"))
	assert.True(t, has("c"))
	assert.Equal(t, int64(1), cached.Stats().Evictions)

	// expiry found on lookup prunes the order as well
	expire("c")
	_, ok := cached.lookup("c")
	assert.False(t, ok)
	assert.Equal(t, 1, cached.order.Len())
	assert.Equal(t, 1, cached.Stats().Entries)
}

func TestCachedCompletionService_SharesInFlight(t *testing.T) {
	var upstream atomic.Int32
	release := make(chan struct{})
	svc := CompletionFunc(func(ctx context.Context, text string, opts *CompletionOptions) (string, error) {
		upstream.Add(1)
		<-release
		return "shared", nil
	})
	cached := NewCachedCompletionService(svc, DefaultCompletionCacheConfig(), nil)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = cached.Complete(context.Background(), "same", nil)
		}(i)
	}

	require.Eventually(t, func() bool { return upstream.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), upstream.Load())
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func TestCachedCompletionService_InDocument(t *testing.T) {
	svc := &recordingCompleter{}
	cached := NewCachedCompletionService(svc, DefaultCompletionCacheConfig(), nil)

	var outputs []string
	for i := 0; i < 2; i++ {
		doc, err := NewDocument(`<Prompt>P</Prompt><Resolve>x</Resolve>`, cached)
		require.NoError(t, err)
		require.NoError(t, doc.Resolve(context.Background(), nil))
		outputs = append(outputs, doc.String())
	}

	assert.Len(t, svc.Calls(), 1)
	assert.Equal(t, []string{"P\n[gen1]", "P\n[gen1]"}, outputs)
}
