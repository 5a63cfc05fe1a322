package recipe

import (
	"context"
	"strings"
	"testing"

	"github.com/kailas-cloud/glycomeal/internal/db"
)

// mockStore stubs the hash store; unset hooks behave like an empty database.
type mockStore struct {
	writeFn        func(ctx context.Context, writes []db.HashWrite) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	hgetFn         func(ctx context.Context, key, field string) (string, error)
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) WriteHashes(ctx context.Context, writes []db.HashWrite) error {
	if m.writeFn != nil {
		return m.writeFn(ctx, writes)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return nil, nil
}

func (m *mockStore) HGet(ctx context.Context, key, field string) (string, error) {
	if m.hgetFn != nil {
		return m.hgetFn(ctx, key, field)
	}
	return "", db.ErrKeyNotFound
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

// memStore is a map-backed hash store that applies writes the way MULTI/EXEC does.
type memStore struct {
	hashes map[string]map[string]string
}

func newMemStore() *memStore {
	return &memStore{hashes: make(map[string]map[string]string)}
}

func (m *memStore) WriteHashes(_ context.Context, writes []db.HashWrite) error {
	for _, w := range writes {
		if w.Replace {
			delete(m.hashes, w.Key)
		}
		h := m.hashes[w.Key]
		if h == nil {
			h = make(map[string]string)
		}
		for f, v := range w.Fields {
			h[f] = v
		}
		for f, v := range w.Defaults {
			if _, ok := h[f]; !ok {
				h[f] = v
			}
		}
		if len(h) > 0 {
			m.hashes[w.Key] = h
		}
	}
	return nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *memStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i], _ = m.HGetAll(ctx, k)
	}
	return out, nil
}

func (m *memStore) HGet(_ context.Context, key, field string) (string, error) {
	v, ok := m.hashes[key][field]
	if !ok {
		return "", db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
