package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const metadataFile = "metadata.json"

// metadata is the index entry for one artifact. Content lives in <id>.txt.
type metadata struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (m metadata) artifact(content string) Artifact {
	return Artifact{
		ID:          m.ID,
		Role:        m.Role,
		Type:        m.Type,
		Title:       m.Title,
		Description: m.Description,
		Content:     content,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func metadataOf(a Artifact) metadata {
	return metadata{
		ID:          a.ID,
		Role:        a.Role,
		Type:        a.Type,
		Title:       a.Title,
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// FileStore keeps artifacts in a directory: a metadata.json index and one
// <id>.txt file holding each artifact's content.
type FileStore struct {
	dir string

	mu    sync.RWMutex
	index map[string]metadata
}

// OpenFileStore opens the store in dir, creating the directory if needed
// and loading an existing index.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create store dir: %w", err)
	}
	s := &FileStore{dir: dir, index: make(map[string]metadata)}

	raw, err := os.ReadFile(filepath.Join(dir, metadataFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("artifact: read index: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.index); err != nil {
			return nil, fmt.Errorf("artifact: decode index: %w", err)
		}
	}
	return s, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) contentPath(id string) string {
	return filepath.Join(s.dir, id+".txt")
}

func (s *FileStore) GenerateID() string {
	return NewID()
}

func (s *FileStore) Create(_ context.Context, d Draft) (Artifact, error) {
	a, err := build(d, now())
	if err != nil {
		return Artifact{}, err
	}
	if err := checkID(a.ID); err != nil {
		return Artifact{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.index[a.ID]; taken {
		return Artifact{}, fmt.Errorf("%w: %s", ErrExists, a.ID)
	}
	if err := writeFile(s.contentPath(a.ID), []byte(a.Content)); err != nil {
		return Artifact{}, fmt.Errorf("artifact: write content: %w", err)
	}
	s.index[a.ID] = metadataOf(a)
	if err := s.saveIndex(); err != nil {
		delete(s.index, a.ID)
		return Artifact{}, err
	}
	return a, nil
}

func (s *FileStore) Get(_ context.Context, id string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(id)
}

func (s *FileStore) List(_ context.Context) ([]Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifacts := make([]Artifact, 0, len(s.index))
	for id := range s.index {
		a, err := s.load(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	sortByCreated(artifacts)
	return artifacts, nil
}

func (s *FileStore) Update(_ context.Context, id string, p Patch) (Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.load(id)
	if err != nil {
		return Artifact{}, err
	}
	a = p.apply(a, now())
	if p.Content != nil {
		if err := writeFile(s.contentPath(id), []byte(a.Content)); err != nil {
			return Artifact{}, fmt.Errorf("artifact: write content: %w", err)
		}
	}
	prev := s.index[id]
	s.index[id] = metadataOf(a)
	if err := s.saveIndex(); err != nil {
		s.index[id] = prev
		return Artifact{}, err
	}
	return a, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.Remove(s.contentPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("artifact: remove content: %w", err)
	}
	delete(s.index, id)
	if err := s.saveIndex(); err != nil {
		s.index[id] = prev
		return err
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.index {
		if err := os.Remove(s.contentPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("artifact: remove content: %w", err)
		}
	}
	s.index = make(map[string]metadata)
	return s.saveIndex()
}

// load reads one artifact. Callers hold s.mu.
func (s *FileStore) load(id string) (Artifact, error) {
	m, ok := s.index[id]
	if !ok {
		return Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	content, err := os.ReadFile(s.contentPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return Artifact{}, fmt.Errorf("%w: %s (content file missing)", ErrNotFound, id)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact: read content: %w", err)
	}
	return m.artifact(string(content)), nil
}

// saveIndex rewrites metadata.json. Callers hold s.mu for writing.
func (s *FileStore) saveIndex() error {
	raw, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: encode index: %w", err)
	}
	if err := writeFile(filepath.Join(s.dir, metadataFile), raw); err != nil {
		return fmt.Errorf("artifact: write index: %w", err)
	}
	return nil
}

// writeFile replaces path atomically via a temporary file and rename.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// checkID rejects identifiers that would escape the store directory.
func checkID(id string) error {
	if id == "." || id == ".." || filepath.Base(id) != id {
		return fmt.Errorf("artifact: invalid id %q", id)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
