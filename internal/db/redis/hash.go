package redis

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/glycomeal/internal/db"
)

// WriteHashes applies every write inside one MULTI/EXEC so readers never see a
// half-updated recipe. A write with Replace drops the old hash first; its
// Defaults go out as HSETNX after the HSET.
func (s *Store) WriteHashes(ctx context.Context, writes []db.HashWrite) error {
	if len(writes) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(writes)+2)
	ops := make([]string, 0, len(writes)+1)
	keys := make([]string, 0, len(writes)+1)
	cmds = append(cmds, s.b().Multi().Build())
	for _, w := range writes {
		if w.Replace {
			cmds = append(cmds, s.b().Del().Key(w.Key).Build())
			ops, keys = append(ops, db.OpDel), append(keys, w.Key)
		}
		if len(w.Fields) > 0 {
			hset := s.b().Hset().Key(w.Key).FieldValue()
			for f, v := range w.Fields {
				hset = hset.FieldValue(f, v)
			}
			cmds = append(cmds, hset.Build())
			ops, keys = append(ops, db.OpHSet), append(keys, w.Key)
		}
		for _, f := range sortedFields(w.Defaults) {
			cmds = append(cmds, s.b().Hsetnx().Key(w.Key).Field(f).Value(w.Defaults[f]).Build())
			ops, keys = append(ops, db.OpHSetNX), append(keys, w.Key)
		}
	}
	cmds = append(cmds, s.b().Exec().Build())

	res := s.client.DoMulti(ctx, cmds...)
	if err := res[0].Error(); err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	for i, op := range ops {
		if err := res[i+1].Error(); err != nil {
			return &db.Error{Op: op, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
	}
	if _, err := res[len(res)-1].ToArray(); err != nil {
		if rueidis.IsRedisNil(err) {
			err = db.ErrTxAborted
		}
		return &db.Error{Op: db.OpExec, Err: err}
	}
	return nil
}

func sortedFields(m map[string]string) []string {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// HGetAll returns all fields of a hash. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.do(ctx, s.b().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}

// HGetAllMulti pipelines HGETALL over keys; results follow key order.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	out := make([]map[string]string, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		out[i] = m
	}
	return out, nil
}

// HGet returns a single hash field, or db.ErrKeyNotFound.
func (s *Store) HGet(ctx context.Context, key, field string) (string, error) {
	v, err := s.do(ctx, s.b().Hget().Key(key).Field(field).Build()).ToString()
	switch {
	case err == nil:
		return v, nil
	case rueidis.IsRedisNil(err):
		return "", db.ErrKeyNotFound
	default:
		return "", &db.Error{Op: db.OpHGet, Err: err}
	}
}

const scanPageSize = 200

// Scan collects every key matching pattern.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	for cursor := uint64(0); ; {
		page, err := s.do(ctx, s.b().Scan().Cursor(cursor).Match(pattern).Count(scanPageSize).Build()).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, page.Elements...)
		if cursor = page.Cursor; cursor == 0 {
			return keys, nil
		}
	}
}
