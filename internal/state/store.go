package state

import (
	"sync"
)

// Store coordinates concurrent reads and writes of a single value and
// notifies subscribers after every change.
type Store[T any] struct {
	mu    sync.RWMutex
	value T
	clone func(T) T

	subMu sync.Mutex
	subs  map[int]func(T)
	next  int
}

// NewStore returns a store holding initial. When clone is non-nil every
// value leaving the store passes through it, so callers never share the
// stored slices or maps.
func NewStore[T any](initial T, clone func(T) T) *Store[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Store[T]{value: initial, clone: clone, subs: map[int]func(T){}}
}

// Get returns a copy of the current value.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clone(s.value)
}

// Set replaces the stored value.
func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.value = s.clone(v)
	s.mu.Unlock()
	s.notify()
}

// Update applies fn to a copy of the current value and stores the result.
func (s *Store[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = s.clone(fn(s.clone(s.value)))
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn to run after each change. The returned func
// removes the subscription and is safe to call more than once.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store[T]) notify() {
	s.subMu.Lock()
	fns := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(s.Get())
	}
}
