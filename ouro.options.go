package ouro

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Client.
type Option func(*clientConfig)

// clientConfig holds the internal configuration for a Client.
type clientConfig struct {
	completer       CompletionService
	completionOpts  *CompletionOptions
	storage         DocumentStorage
	hooks           *HookRegistry
	budget          *TokenBudget
	concurrency     int
	logger          *zap.Logger
	completionCache *CompletionCacheConfig
	storageCache    *StorageCacheConfig
}

// defaultClientConfig returns the default client configuration.
func defaultClientConfig() *clientConfig {
	return &clientConfig{
		concurrency: DefaultConcurrency,
	}
}

// WithCompletionService sets the service every document submits to.
// Default: nil (resolution fails with a no-completion-service error)
func WithCompletionService(svc CompletionService) Option {
	return func(c *clientConfig) {
		c.completer = svc
	}
}

// WithLogger sets the logger for the client and its documents.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithStorage sets the document store used by ResolveStored and SaveDocument.
// Default: nil
func WithStorage(storage DocumentStorage) Option {
	return func(c *clientConfig) {
		c.storage = storage
	}
}

// WithHooks sets the hook registry shared by every document.
// Default: nil (no hooks)
func WithHooks(hooks *HookRegistry) Option {
	return func(c *clientConfig) {
		c.hooks = hooks
	}
}

// WithCompletionOptions sets default completion options. Frontmatter
// options of a document override them field by field.
// Default: nil (service defaults)
func WithCompletionOptions(opts *CompletionOptions) Option {
	return func(c *clientConfig) {
		c.completionOpts = opts.Clone()
	}
}

// WithConcurrency sets how many sibling directives may resolve at once.
// Values below 1 are ignored.
// Default: 1 (sequential)
func WithConcurrency(n int) Option {
	return func(c *clientConfig) {
		if n >= 1 {
			c.concurrency = n
		}
	}
}

// WithTokenBudget rejects submissions whose estimate exceeds the budget.
// Default: nil (unbounded)
func WithTokenBudget(budget *TokenBudget) Option {
	return func(c *clientConfig) {
		c.budget = budget
	}
}

// WithCompletionCache memoizes completions by document text and options.
// Default: nil (every submission reaches the service)
func WithCompletionCache(config CompletionCacheConfig) Option {
	return func(c *clientConfig) {
		c.completionCache = &config
	}
}

// WithStorageCache caches latest-version lookups in front of the store.
// Default: nil
func WithStorageCache(config StorageCacheConfig) Option {
	return func(c *clientConfig) {
		c.storageCache = &config
	}
}
