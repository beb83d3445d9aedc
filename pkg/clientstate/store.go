package clientstate

import "sync"

// Store holds a value of T and tells subscribers about every change.
// Concurrent updates are applied in lock order; the last one wins.
type Store[T any] struct {
	mu    sync.RWMutex
	state T
	subs  map[int]func(T)
	next  int
}

func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{state: initial, subs: make(map[int]func(T))}
}

func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

// Update replaces the state with fn(current). fn runs under the store lock
// and must not call back into the store.
func (s *Store[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.state = fn(s.state)
	state := s.state
	subs := make([]func(T), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(state)
	}
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
