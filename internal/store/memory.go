package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-process DocumentStore. It backs single-process
// deployments and the engine tests, where two sessions share one store the
// way two browsers share one Firestore document.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	subs   map[string]map[int]*memSubscriber
	nextID int
}

type memSubscriber struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending [][]byte
	closed  bool
}

func newMemSubscriber() *memSubscriber {
	s := &memSubscriber{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memSubscriber) push(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = append(s.pending, raw)
	s.cond.Signal()
}

func (s *memSubscriber) next() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.pending) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.pending) == 0 {
		return nil, false
	}
	raw := s.pending[0]
	s.pending = s.pending[1:]
	return raw, true
}

func (s *memSubscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string][]byte),
		subs: make(map[string]map[int]*memSubscriber),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.docs[key] = raw
	m.notifyLocked(key, raw)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, key string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.docs[key]
	if !ok {
		return ErrNotFound
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	applyFields(doc, fields)

	merged, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.docs[key] = merged
	m.notifyLocked(key, merged)
	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, key string, fn func(json.RawMessage)) (func(), error) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++

	sub := newMemSubscriber()
	if m.subs[key] == nil {
		m.subs[key] = make(map[int]*memSubscriber)
	}
	m.subs[key][id] = sub

	// Initial snapshot, queued before any later write can be.
	if raw, ok := m.docs[key]; ok {
		sub.push(raw)
	}
	m.mu.Unlock()

	go func() {
		for {
			raw, ok := sub.next()
			if !ok {
				return
			}
			fn(raw)
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[key], id)
			m.mu.Unlock()
			sub.close()
		})
	}
	return unsubscribe, nil
}

func (m *MemoryStore) notifyLocked(key string, raw []byte) {
	for _, sub := range m.subs[key] {
		sub.push(raw)
	}
}

var _ DocumentStore = (*MemoryStore)(nil)
