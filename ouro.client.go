package ouro

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Client is the main entry point: it binds a completion service, shared
// hooks and an optional document store, and creates documents that
// inherit them.
type Client struct {
	config *clientConfig
	logger *zap.Logger
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	config := defaultClientConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if config.completionCache != nil && config.completer != nil {
		config.completer = NewCachedCompletionService(config.completer, *config.completionCache, logger)
	}
	if config.storageCache != nil && config.storage != nil {
		config.storage = NewCachedStorage(config.storage, *config.storageCache)
	}

	logger.Debug(LogMsgClientCreated,
		zap.Bool(LogFieldHasCompleter, config.completer != nil),
		zap.Bool(LogFieldHasStorage, config.storage != nil),
		zap.Int(LogFieldConcurrency, config.concurrency))

	return &Client{config: config, logger: logger}, nil
}

// MustNew creates a Client and panics if there's an error.
func MustNew(opts ...Option) *Client {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// CompletionService returns the configured service, or nil
func (c *Client) CompletionService() CompletionService { return c.config.completer }

// Storage returns the configured document store, or nil
func (c *Client) Storage() DocumentStorage { return c.config.storage }

// Complete sends text straight to the completion service.
func (c *Client) Complete(ctx context.Context, text string) (string, error) {
	if c.config.completer == nil {
		return "", NewNoCompletionServiceError()
	}
	return c.config.completer.Complete(ctx, text, c.config.completionOpts)
}

// CreateDocument parses markup into a top-level document bound to this
// client's collaborators. A missing Prompt is grafted from the first line.
func (c *Client) CreateDocument(text string) (*Fragment, error) {
	return NewDocument(text, c.config.completer, c.fragmentOptions()...)
}

// ResolveMarkup creates a document from markup and runs one resolution
// pass over it with opts.
func (c *Client) ResolveMarkup(ctx context.Context, markup string, opts *ResolveOptions) (*Fragment, error) {
	doc, err := c.CreateDocument(markup)
	if err != nil {
		return nil, err
	}
	if err := doc.Resolve(ctx, opts); err != nil {
		return nil, err
	}
	return doc, nil
}

// Resolve reads a markup file, resolves every directive and returns the
// linearized document.
func (c *Client) Resolve(ctx context.Context, path string) (string, error) {
	markup, err := readMarkupFile(path)
	if err != nil {
		return "", err
	}
	doc, err := c.ResolveMarkup(ctx, markup, nil)
	if err != nil {
		return "", err
	}
	return doc.String(), nil
}

// ResolveNext reads a markup file and resolves only its first directive.
// The returned document can be advanced further with Fragment.ResolveNext.
func (c *Client) ResolveNext(ctx context.Context, path string) (*Fragment, error) {
	markup, err := readMarkupFile(path)
	if err != nil {
		return nil, err
	}
	return c.ResolveMarkup(ctx, markup, &ResolveOptions{HaltAfterFirstComplete: true})
}

// SaveDocument validates markup and stores it as the next version of name.
func (c *Client) SaveDocument(ctx context.Context, name, markup string, tags ...string) (*StoredDocument, error) {
	if c.config.storage == nil {
		return nil, NewNoStorageError()
	}
	if _, err := parseDocumentSource([]byte(markup), c.logger); err != nil {
		return nil, err
	}

	doc := &StoredDocument{Name: name, Source: markup, Tags: tags}
	if err := c.config.storage.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ResolveStored resolves the latest stored version of name, records the
// output on that version and returns it.
func (c *Client) ResolveStored(ctx context.Context, name string) (string, error) {
	if c.config.storage == nil {
		return "", NewNoStorageError()
	}

	stored, err := c.config.storage.Get(ctx, name)
	if err != nil {
		return "", err
	}
	doc, err := c.ResolveMarkup(ctx, stored.Source, nil)
	if err != nil {
		return "", err
	}

	output := doc.String()
	if err := c.config.storage.SetOutput(ctx, stored.Name, stored.Version, output); err != nil {
		return "", err
	}

	c.logger.Debug(LogMsgStoredResolved,
		zap.String(LogFieldName, stored.Name),
		zap.Int(LogFieldVersion, stored.Version),
		zap.Int(LogFieldLength, len(output)))
	return output, nil
}

// Summarize asks the completion service for a summary of text in at most
// maxSentences sentences and returns the generated answer.
func (c *Client) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	if c.config.completer == nil {
		return "", NewNoCompletionServiceError()
	}

	markup := fmt.Sprintf(SummarizeInstructionFormat, maxSentences) + LineFeed + LineFeed +
		SummarizeTextLabel + EscapeMarkup(text) + LineFeed +
		SummarizeSummaryLabel

	doc, err := c.CreateDocument(markup)
	if err != nil {
		return "", err
	}
	generated, err := doc.ResolveAndSubmit(ctx, SummarizeElementName)
	if err != nil {
		return "", err
	}
	return generated.Content, nil
}

// Close releases the document store, if any.
func (c *Client) Close() error {
	if c.config.storage == nil {
		return nil
	}
	return c.config.storage.Close()
}

func (c *Client) fragmentOptions() []FragmentOption {
	return []FragmentOption{
		WithFragmentLogger(c.logger),
		WithFragmentHooks(c.config.hooks),
		WithFragmentCompletionOptions(c.config.completionOpts),
		WithFragmentTokenBudget(c.config.budget),
		WithFragmentConcurrency(c.config.concurrency),
	}
}

func readMarkupFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", NewReadDocumentError(path, err)
	}
	return string(data), nil
}
