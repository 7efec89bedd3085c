/*
storage.go - Tolerant typed access to the key-value Store

PURPOSE:
  Every component reads and writes through Storage. It never fails:
  - Reads of a missing key, a store error or malformed JSON log and
    return the caller's default.
  - Writes that fail to marshal or persist are logged and dropped; the
    caller carries on as if the write succeeded.

LEGACY SHAPES:
  GetArray accepts both lists and keyed-by-id objects. Older data stored
  some collections as {id: entry}; those come back as a list of values.

CHANGE NOTIFICATION:
  Subscribers are told the key of every successful write or removal so a
  dashboard can refresh what it shows.
*/
package hisab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Storage is the safe accessor over a Store.
type Storage struct {
	store Store
	log   log.FieldLogger

	mu          sync.RWMutex
	nextSub     int
	subscribers map[int]func(key string)
}

// NewStorage wraps store. A nil logger uses the logrus standard logger.
func NewStorage(store Store, logger log.FieldLogger) *Storage {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Storage{
		store:       store,
		log:         logger.WithField("component", "storage"),
		subscribers: make(map[int]func(string)),
	}
}

// Subscribe registers fn to be called with the key of every write.
// The returned func removes the subscription.
func (s *Storage) Subscribe(fn func(key string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Storage) changed(key string) {
	s.mu.RLock()
	fns := make([]func(string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(key)
	}
}

// raw returns the stored bytes for key, or false if absent or unreadable.
func (s *Storage) raw(ctx context.Context, key string) (json.RawMessage, bool) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.WithFields(log.Fields{"key": key, "error": err}).Warn("storage read failed")
		}
		return nil, false
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, false
	}
	return data, true
}

// Has reports whether key holds a non-null value.
func (s *Storage) Has(ctx context.Context, key string) bool {
	_, ok := s.raw(ctx, key)
	return ok
}

// Remove deletes key. Failures are logged.
func (s *Storage) Remove(ctx context.Context, key string) {
	if err := s.store.Remove(ctx, key); err != nil {
		s.log.WithFields(log.Fields{"key": key, "error": err}).Error("storage remove failed")
		return
	}
	s.changed(key)
}

func (s *Storage) setRaw(ctx context.Context, key string, data []byte) {
	if err := s.store.Set(ctx, key, data); err != nil {
		s.log.WithFields(log.Fields{"key": key, "error": err}).Error("storage write failed")
		return
	}
	s.changed(key)
}

// =============================================================================
// TYPED ACCESS
// =============================================================================

// Get decodes the value under key, or returns def.
func Get[T any](ctx context.Context, s *Storage, key string, def T) T {
	data, ok := s.raw(ctx, key)
	if !ok {
		return def
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.log.WithFields(log.Fields{"key": key, "error": err}).Warn("malformed stored value, using default")
		return def
	}
	return v
}

// Set encodes value under key. Failures are logged, not returned.
func Set[T any](ctx context.Context, s *Storage, key string, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.WithFields(log.Fields{"key": key, "error": err}).Error("failed to encode value")
		return
	}
	s.setRaw(ctx, key, data)
}

// GetArray decodes a list under key. A keyed object yields its values;
// any other shape yields an empty slice.
func GetArray[T any](ctx context.Context, s *Storage, key string) []T {
	data, ok := s.raw(ctx, key)
	if !ok {
		return []T{}
	}
	return decodeList[T](s.log.WithField("key", key), data)
}

func decodeList[T any](logger log.FieldLogger, data json.RawMessage) []T {
	elems := listElements(logger, data)
	out := make([]T, 0, len(elems))
	for i, elem := range elems {
		var v T
		if err := json.Unmarshal(elem.Value, &v); err != nil {
			logger.WithFields(log.Fields{"index": i, "error": err}).Warn("skipping undecodable element")
			continue
		}
		out = append(out, v)
	}
	return out
}

// element is one value of a stored list. Key is the object key when the
// list was stored keyed-by-id, empty for a plain array.
type element struct {
	Key   string
	Value json.RawMessage
}

// listElements splits a list or keyed object into its elements, ordered by
// key for objects. Any other shape yields none.
func listElements(logger log.FieldLogger, data json.RawMessage) []element {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '[':
		var values []json.RawMessage
		if err := json.Unmarshal(data, &values); err != nil {
			logger.WithField("error", err).Warn("malformed list, using empty")
			return nil
		}
		elems := make([]element, len(values))
		for i, v := range values {
			elems[i] = element{Value: v}
		}
		return elems
	case '{':
		var byKey map[string]json.RawMessage
		if err := json.Unmarshal(data, &byKey); err != nil {
			logger.WithField("error", err).Warn("malformed object, using empty")
			return nil
		}
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		elems := make([]element, len(keys))
		for i, k := range keys {
			elems[i] = element{Key: k, Value: byKey[k]}
		}
		return elems
	}
	return nil
}
