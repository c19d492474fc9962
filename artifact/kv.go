package artifact

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/nettee/synphora/store"
)

const keyPrefix = "artifacts/"

// KVStore keeps msgpack-encoded artifacts in a store.Adapter under keys
// "artifacts/<id>".
type KVStore struct {
	// mu serializes read-modify-write sequences within this process.
	mu      sync.Mutex
	adapter store.Adapter
}

// NewKVStore creates a store over adapter.
func NewKVStore(adapter store.Adapter) *KVStore {
	return &KVStore{adapter: adapter}
}

// NewMemoryStore returns a KVStore over a fresh in-memory adapter.
func NewMemoryStore() *KVStore {
	return NewKVStore(store.NewMemoryAdapter())
}

func key(id string) string {
	return keyPrefix + id
}

func (s *KVStore) GenerateID() string {
	return NewID()
}

func (s *KVStore) Create(ctx context.Context, d Draft) (Artifact, error) {
	a, err := build(d, now())
	if err != nil {
		return Artifact{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok, err := s.adapter.Get(ctx, key(a.ID)); err != nil {
		return Artifact{}, err
	} else if ok {
		return Artifact{}, fmt.Errorf("%w: %s", ErrExists, a.ID)
	}
	if err := s.put(ctx, a); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

func (s *KVStore) Get(ctx context.Context, id string) (Artifact, error) {
	raw, ok, err := s.adapter.Get(ctx, key(id))
	if err != nil {
		return Artifact{}, err
	}
	if !ok {
		return Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var a Artifact
	if err := msgpack.Unmarshal(raw, &a); err != nil {
		return Artifact{}, &store.SerializationError{Key: key(id), Err: err}
	}
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	return a, nil
}

func (s *KVStore) List(ctx context.Context) ([]Artifact, error) {
	keys, err := s.adapter.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}
	artifacts := make([]Artifact, 0, len(keys))
	for _, k := range keys {
		a, err := s.Get(ctx, strings.TrimPrefix(k, keyPrefix))
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	sortByCreated(artifacts)
	return artifacts, nil
}

func (s *KVStore) Update(ctx context.Context, id string, p Patch) (Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.Get(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	a = p.apply(a, now())
	if err := s.put(ctx, a); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

func (s *KVStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.adapter.Delete(ctx, key(id))
}

func (s *KVStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.adapter.Keys(ctx, keyPrefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.adapter.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (s *KVStore) put(ctx context.Context, a Artifact) error {
	raw, err := msgpack.Marshal(&a)
	if err != nil {
		return &store.SerializationError{Key: key(a.ID), Err: err}
	}
	return s.adapter.Set(ctx, key(a.ID), raw)
}

func sortByCreated(artifacts []Artifact) {
	slices.SortStableFunc(artifacts, func(a, b Artifact) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

var _ Store = (*KVStore)(nil)
