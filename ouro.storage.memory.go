package ouro

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps documents in process memory. Versions of a name are
// held newest first. Contents are lost when the process exits.
type MemoryStorage struct {
	mu     sync.RWMutex
	byName map[string][]*StoredDocument
	closed bool
}

// MemoryStorageDriver opens MemoryStorage instances.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open returns an empty MemoryStorage. The connection string is ignored.
func (d *MemoryStorageDriver) Open(connectionString string) (DocumentStorage, error) {
	return NewMemoryStorage(), nil
}

// NewMemoryStorage creates an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{byName: make(map[string][]*StoredDocument)}
}

// view runs fn under the read lock once ctx and the store are usable
func (s *MemoryStorage) view(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return NewStorageClosedError()
	}
	return fn()
}

// update is view under the write lock
func (s *MemoryStorage) update(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewStorageClosedError()
	}
	return fn()
}

// Get returns the latest version of name.
func (s *MemoryStorage) Get(ctx context.Context, name string) (*StoredDocument, error) {
	var doc *StoredDocument
	err := s.view(ctx, func() error {
		versions := s.byName[name]
		if len(versions) == 0 {
			return NewDocumentNotFoundError(name)
		}
		doc = copyStoredDocument(versions[0])
		return nil
	})
	return doc, err
}

// GetVersion returns one version of name.
func (s *MemoryStorage) GetVersion(ctx context.Context, name string, version int) (*StoredDocument, error) {
	var doc *StoredDocument
	err := s.view(ctx, func() error {
		found := s.version(name, version)
		if found == nil {
			return NewVersionNotFoundError(name, version)
		}
		doc = copyStoredDocument(found)
		return nil
	})
	return doc, err
}

// Save stores doc as the next version of its name and fills in ID,
// Version and timestamps.
func (s *MemoryStorage) Save(ctx context.Context, doc *StoredDocument) error {
	if err := validateDocumentName(doc.Name); err != nil {
		return err
	}
	return s.update(ctx, func() error {
		versions := s.byName[doc.Name]
		next := 1
		if len(versions) > 0 {
			next = versions[0].Version + 1
		}

		now := time.Now()
		doc.ID, doc.Version = generateDocumentID(), next
		doc.CreatedAt, doc.UpdatedAt = now, now

		s.byName[doc.Name] = append([]*StoredDocument{copyStoredDocument(doc)}, versions...)
		return nil
	})
}

// SetOutput records the resolved output of an existing version.
func (s *MemoryStorage) SetOutput(ctx context.Context, name string, version int, output string) error {
	return s.update(ctx, func() error {
		doc := s.version(name, version)
		if doc == nil {
			return NewVersionNotFoundError(name, version)
		}
		now := time.Now()
		doc.Output, doc.ResolvedAt, doc.UpdatedAt = output, &now, now
		return nil
	})
}

// Delete removes every version of name.
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	return s.update(ctx, func() error {
		if _, ok := s.byName[name]; !ok {
			return NewDocumentNotFoundError(name)
		}
		delete(s.byName, name)
		return nil
	})
}

// List returns copies of the documents matching query.
func (s *MemoryStorage) List(ctx context.Context, query *DocumentQuery) ([]*StoredDocument, error) {
	if query == nil {
		query = &DocumentQuery{}
	}
	var matches []*StoredDocument
	err := s.view(ctx, func() error {
		for _, versions := range s.byName {
			if len(versions) == 0 {
				continue
			}
			candidates := versions[:1]
			if query.IncludeAllVersions {
				candidates = versions
			}
			for _, doc := range candidates {
				if matchesDocumentQuery(doc, query) {
					matches = append(matches, copyStoredDocument(doc))
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortAndPage(matches, query), nil
}

// Exists reports whether any version of name is stored.
func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	var found bool
	err := s.view(ctx, func() error {
		found = len(s.byName[name]) > 0
		return nil
	})
	return found, err
}

// ListVersions returns the stored versions of name, newest first.
func (s *MemoryStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	var out []int
	err := s.view(ctx, func() error {
		versions := s.byName[name]
		out = make([]int, len(versions))
		for i, doc := range versions {
			out[i] = doc.Version
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close drops every document. Later calls fail with a closed-storage error.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.byName = nil
	return nil
}

// version finds one version of name; the caller holds mu
func (s *MemoryStorage) version(name string, v int) *StoredDocument {
	for _, doc := range s.byName[name] {
		if doc.Version == v {
			return doc
		}
	}
	return nil
}
