package ouro

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FilesystemStorage keeps one JSON file per document version:
//
//	<root>/<name>/v1.json
//	<root>/<name>/v2.json
//
// Names are single path segments; anything that could leave root is
// rejected before the disk is touched.
type FilesystemStorage struct {
	mu     sync.RWMutex
	root   string
	closed bool
}

// FilesystemStorageDriver opens FilesystemStorage rooted at the connection string.
type FilesystemStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameFilesystem, &FilesystemStorageDriver{})
}

func (d *FilesystemStorageDriver) Open(connectionString string) (DocumentStorage, error) {
	return NewFilesystemStorage(connectionString)
}

// NewFilesystemStorage creates root when missing.
func NewFilesystemStorage(root string) (*FilesystemStorage, error) {
	if root == "" {
		return nil, &StorageError{Message: ErrMsgInvalidStorageRoot}
	}
	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, &StorageError{Message: ErrMsgCreateStorageDir, Name: root, Cause: err}
	}
	return &FilesystemStorage{root: root}, nil
}

// enter checks ctx and names, then takes the lock. The returned func
// releases it.
func (s *FilesystemStorage) enter(ctx context.Context, write bool, names ...string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := validateFilesystemName(name); err != nil {
			return nil, err
		}
	}

	release := s.mu.RUnlock
	if write {
		s.mu.Lock()
		release = s.mu.Unlock
	} else {
		s.mu.RLock()
	}
	if s.closed {
		release()
		return nil, NewStorageClosedError()
	}
	return release, nil
}

func (s *FilesystemStorage) Get(ctx context.Context, name string) (*StoredDocument, error) {
	release, err := s.enter(ctx, false, name)
	if err != nil {
		return nil, err
	}
	defer release()

	versions, err := s.versions(name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, NewDocumentNotFoundError(name)
	}
	return s.readFile(name, versions[0])
}

func (s *FilesystemStorage) GetVersion(ctx context.Context, name string, version int) (*StoredDocument, error) {
	release, err := s.enter(ctx, false, name)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.readFile(name, version)
}

// Save writes doc as the next version file and copies the assigned
// identity back onto doc.
func (s *FilesystemStorage) Save(ctx context.Context, doc *StoredDocument) error {
	release, err := s.enter(ctx, true, doc.Name)
	if err != nil {
		return err
	}
	defer release()

	dir := filepath.Join(s.root, doc.Name)
	if err := os.MkdirAll(dir, FilesystemDirPermissions); err != nil {
		return &StorageError{Message: ErrMsgCreateStorageDir, Name: dir, Cause: err}
	}
	versions, err := s.versions(doc.Name)
	if err != nil {
		return err
	}

	stored := copyStoredDocument(doc)
	now := time.Now()
	stored.ID, stored.CreatedAt, stored.UpdatedAt = generateDocumentID(), now, now
	stored.Version = 1
	if len(versions) > 0 {
		stored.Version = versions[0] + 1
	}
	if err := s.writeFile(stored); err != nil {
		return err
	}

	doc.ID, doc.Version = stored.ID, stored.Version
	doc.CreatedAt, doc.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return nil
}

func (s *FilesystemStorage) SetOutput(ctx context.Context, name string, version int, output string) error {
	release, err := s.enter(ctx, true, name)
	if err != nil {
		return err
	}
	defer release()

	doc, err := s.readFile(name, version)
	if err != nil {
		return err
	}
	now := time.Now()
	doc.Output, doc.ResolvedAt, doc.UpdatedAt = output, &now, now
	return s.writeFile(doc)
}

// Delete removes the document directory with every version in it.
func (s *FilesystemStorage) Delete(ctx context.Context, name string) error {
	release, err := s.enter(ctx, true, name)
	if err != nil {
		return err
	}
	defer release()

	dir := filepath.Join(s.root, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return NewDocumentNotFoundError(name)
	}
	if err := os.RemoveAll(dir); err != nil {
		return &StorageError{Message: ErrMsgDeleteDocument, Name: name, Cause: err}
	}
	return nil
}

// List walks every document directory. Unreadable versions are skipped.
func (s *FilesystemStorage) List(ctx context.Context, query *DocumentQuery) ([]*StoredDocument, error) {
	release, err := s.enter(ctx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	if query == nil {
		query = &DocumentQuery{}
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &StorageError{Message: ErrMsgReadStorageDir, Cause: err}
	}

	var matches []*StoredDocument
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		versions, err := s.versions(entry.Name())
		if err != nil || len(versions) == 0 {
			continue
		}
		if !query.IncludeAllVersions {
			versions = versions[:1]
		}
		for _, v := range versions {
			if doc, err := s.readFile(entry.Name(), v); err == nil && matchesDocumentQuery(doc, query) {
				matches = append(matches, doc)
			}
		}
	}
	return sortAndPage(matches, query), nil
}

func (s *FilesystemStorage) Exists(ctx context.Context, name string) (bool, error) {
	release, err := s.enter(ctx, false, name)
	if err != nil {
		return false, err
	}
	defer release()

	versions, err := s.versions(name)
	return len(versions) > 0, err
}

// ListVersions returns version numbers newest first.
func (s *FilesystemStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	release, err := s.enter(ctx, false, name)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.versions(name)
}

func (s *FilesystemStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FilesystemStorage) path(name string, version int) string {
	return filepath.Join(s.root, name, FilesystemVersionPrefix+strconv.Itoa(version)+FilesystemVersionSuffix)
}

// versions parses v<N>.json file names under the document directory,
// newest first. A missing directory has no versions.
func (s *FilesystemStorage) versions(name string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, name))
	if errors.Is(err, os.ErrNotExist) {
		return []int{}, nil
	}
	if err != nil {
		return nil, &StorageError{Message: ErrMsgReadStorageDir, Name: name, Cause: err}
	}

	out := []int{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		num, ok := strings.CutPrefix(entry.Name(), FilesystemVersionPrefix)
		if !ok {
			continue
		}
		num, ok = strings.CutSuffix(num, FilesystemVersionSuffix)
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(num); err == nil && v > 0 {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	slices.Reverse(out)
	return out, nil
}

func (s *FilesystemStorage) readFile(name string, version int) (*StoredDocument, error) {
	path := s.path(name, version)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, NewVersionNotFoundError(name, version)
	}
	if err != nil {
		return nil, &StorageError{Message: ErrMsgReadDocumentFile, Name: path, Cause: err}
	}

	doc := &StoredDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, &StorageError{Message: ErrMsgUnmarshalDocument, Name: path, Cause: err}
	}
	return doc, nil
}

func (s *FilesystemStorage) writeFile(doc *StoredDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &StorageError{Message: ErrMsgMarshalDocument, Name: doc.Name, Cause: err}
	}
	path := s.path(doc.Name, doc.Version)
	if err := os.WriteFile(path, data, FilesystemFilePermissions); err != nil {
		return &StorageError{Message: ErrMsgWriteDocument, Name: path, Cause: err}
	}
	return nil
}

// validateFilesystemName additionally rejects names that are not a
// single safe path segment.
func validateFilesystemName(name string) error {
	if err := validateDocumentName(name); err != nil {
		return err
	}
	if strings.Contains(name, "..") {
		return &StorageError{Message: ErrMsgPathTraversalDetected, Name: name}
	}
	if strings.ContainsAny(name, `/\:*?"<>|`) {
		return &StorageError{Message: ErrMsgInvalidDocumentName, Name: name}
	}
	return nil
}
