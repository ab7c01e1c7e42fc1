package ouro

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itsatony/go-cuserr"
)

// DocumentID is a unique identifier for a stored document version.
// Format: "doc_" followed by random URL-safe characters.
type DocumentID string

// StoredDocument is a versioned markup document kept in a storage backend.
type StoredDocument struct {
	// ID is the unique identifier for this version.
	ID DocumentID `json:"id"`

	// Name is the document name used for lookups.
	Name string `json:"name"`

	// Version is the version number (1, 2, 3, ...). Higher is newer.
	Version int `json:"version"`

	// Source is the raw markup, including any frontmatter.
	Source string `json:"source"`

	// Output is the linearized result of the last resolution of this
	// version; empty until the document was resolved.
	Output string `json:"output,omitempty"`

	// ResolvedAt is when Output was last written.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Tags for categorization and querying.
	Tags []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentQuery defines filters for listing documents.
type DocumentQuery struct {
	// NamePrefix filters to names starting with this prefix.
	NamePrefix string

	// NameContains filters to names containing this substring.
	NameContains string

	// Tags filters to documents having ALL specified tags.
	Tags []string

	// Limit is the maximum number of results (0 = no limit).
	Limit int

	// Offset is the number of results to skip.
	Offset int

	// IncludeAllVersions includes all versions, not just the latest.
	IncludeAllVersions bool
}

// DocumentStorage is the interface for pluggable document backends.
// Implementations must be safe for concurrent use.
type DocumentStorage interface {
	// Get retrieves the latest version of a document by name.
	Get(ctx context.Context, name string) (*StoredDocument, error)

	// GetVersion retrieves a specific version of a document.
	GetVersion(ctx context.Context, name string, version int) (*StoredDocument, error)

	// Save stores a document as a new version. ID, Version, CreatedAt and
	// UpdatedAt are set by the storage.
	Save(ctx context.Context, doc *StoredDocument) error

	// SetOutput records the resolved output of an existing version.
	SetOutput(ctx context.Context, name string, version int, output string) error

	// Delete removes all versions of a document.
	Delete(ctx context.Context, name string) error

	// List returns documents matching the query, ordered by name then
	// version descending.
	List(ctx context.Context, query *DocumentQuery) ([]*StoredDocument, error)

	// Exists checks if a document with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// ListVersions returns all version numbers, newest first.
	ListVersions(ctx context.Context, name string) ([]int, error)

	// Close releases any resources held by the storage.
	Close() error
}

// StorageDriver is a factory for creating storage instances.
// Drivers register themselves during init().
type StorageDriver interface {
	// Open creates a new storage instance. The connection string is driver-specific.
	Open(connectionString string) (DocumentStorage, error)
}

// Storage driver registry
var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver registers a storage driver by name.
// Panics if the driver is nil or the name is already registered.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	if _, exists := storageDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storageDrivers[name] = driver
}

// OpenStorage opens a storage connection using the named driver.
//
//	storage, err := ouro.OpenStorage("memory", "")
//	storage, err := ouro.OpenStorage("filesystem", "/var/lib/ouro")
func OpenStorage(driverName, connectionString string) (DocumentStorage, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, &StorageError{Message: ErrMsgStorageDriverNotFound, Name: driverName}
	}
	return driver.Open(connectionString)
}

// ListStorageDrivers returns the sorted names of all registered drivers.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	names := make([]string, 0, len(storageDrivers))
	for name := range storageDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Storage error message constants
const (
	ErrMsgNilStorageDriver        = "storage driver is nil"
	ErrMsgDriverAlreadyRegistered = "storage driver already registered"
	ErrMsgStorageDriverNotFound   = "storage driver not found"
	ErrMsgStorageClosed           = "storage is closed"
	ErrMsgNoStorage               = "no document storage configured"
	ErrMsgDocumentNotFound        = "document not found"
	ErrMsgVersionNotFound         = "document version not found"
	ErrMsgInvalidDocumentName     = "invalid document name"
	ErrMsgPathTraversalDetected   = "path traversal detected in document name"
	ErrMsgInvalidStorageRoot      = "storage root directory is empty"
	ErrMsgCreateStorageDir        = "failed to create storage directory"
	ErrMsgReadStorageDir          = "failed to read storage directory"
	ErrMsgMarshalDocument         = "failed to marshal document"
	ErrMsgUnmarshalDocument       = "failed to unmarshal document"
	ErrMsgWriteDocument           = "failed to write document file"
	ErrMsgReadDocumentFile        = "failed to read document file"
	ErrMsgDeleteDocument          = "failed to delete document"
)

// MetaKeyName is the metadata key carrying a document name
const MetaKeyName = "name"

// ErrDocumentNotFound is matched by every not-found error of the storage
// backends, including missing versions.
var ErrDocumentNotFound = errors.New(ErrMsgDocumentNotFound)

// NewDocumentNotFoundError creates an error for a missing document
func NewDocumentNotFoundError(name string) error {
	return cuserr.WrapStdError(ErrDocumentNotFound, ErrCodeStorage, ErrMsgDocumentNotFound).
		WithMetadata(MetaKeyName, name)
}

// NewVersionNotFoundError creates an error for a missing document version
func NewVersionNotFoundError(name string, version int) error {
	return &StorageError{
		Message: ErrMsgVersionNotFound,
		Name:    name,
		Version: version,
		Cause:   ErrDocumentNotFound,
	}
}

// NewStorageClosedError creates an error for operations on closed storage
func NewStorageClosedError() error {
	return &StorageError{Message: ErrMsgStorageClosed}
}

// NewNoStorageError creates an error for storage operations on a client
// without a document store
func NewNoStorageError() error {
	return &StorageError{Message: ErrMsgNoStorage}
}

// StorageError represents a storage backend failure.
type StorageError struct {
	Message string
	Name    string
	Version int
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Name != "" {
		msg += ": " + e.Name
		if e.Version > 0 {
			msg += " v" + strconv.Itoa(e.Version)
		}
	}
	if e.Cause != nil && !errors.Is(e.Cause, ErrDocumentNotFound) {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err means a document or version does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

func generateDocumentID() DocumentID {
	b := make([]byte, DocumentIDRandomBytes)
	_, _ = rand.Read(b)
	return DocumentID(DocumentIDPrefix + base64.RawURLEncoding.EncodeToString(b))
}

func validateDocumentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &StorageError{Message: ErrMsgInvalidDocumentName}
	}
	return nil
}

func matchesDocumentQuery(doc *StoredDocument, query *DocumentQuery) bool {
	if query.NamePrefix != "" && !strings.HasPrefix(doc.Name, query.NamePrefix) {
		return false
	}
	if query.NameContains != "" && !strings.Contains(doc.Name, query.NameContains) {
		return false
	}
	for _, tag := range query.Tags {
		if !containsString(doc.Tags, tag) {
			return false
		}
	}
	return true
}

// sortAndPage orders results by name then version descending and applies
// the query's offset and limit.
func sortAndPage(results []*StoredDocument, query *DocumentQuery) []*StoredDocument {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return results[i].Version > results[j].Version
	})

	if query.Offset > 0 {
		if query.Offset >= len(results) {
			return []*StoredDocument{}
		}
		results = results[query.Offset:]
	}
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results
}

func containsString(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}

func copyStoredDocument(doc *StoredDocument) *StoredDocument {
	if doc == nil {
		return nil
	}
	c := *doc
	if doc.Metadata != nil {
		c.Metadata = make(map[string]string, len(doc.Metadata))
		for k, v := range doc.Metadata {
			c.Metadata[k] = v
		}
	}
	if doc.Tags != nil {
		c.Tags = append([]string(nil), doc.Tags...)
	}
	if doc.ResolvedAt != nil {
		t := *doc.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
