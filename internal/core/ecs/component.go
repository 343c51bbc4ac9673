package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity does not carry the requested component.
	ErrNotFound = errors.New("component not found")
	// ErrAmbiguousSingleton is returned when more than one entity carries a singleton component.
	ErrAmbiguousSingleton = errors.New("ambiguous singleton")
)

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Poolable components restore every field to its documented default in Reset.
// Reset runs when a component is released and before a fresh one is handed out,
// so a recycled instance is indistinguishable from a new one.
type Poolable interface {
	Reset()
}

// maxPooled caps how many released instances a store keeps around.
const maxPooled = 256

// Store is a generic typed map store for ECS components. It doubles as the
// component pool for its type: removed components are reset and reused by Acquire.
// No reflect, no interface{}: pure generics.
type Store[T any] struct {
	data map[EntityID]*T
	free []*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[EntityID]*T, 256),
		free: make([]*T, 0, 16),
	}
}

// Acquire returns a component instance in its default state, reusing a
// released one when available.
func (s *Store[T]) Acquire() *T {
	if n := len(s.free); n > 0 {
		c := s.free[n-1]
		s.free[n-1] = nil
		s.free = s.free[:n-1]
		return c
	}
	c := new(T)
	if p, ok := any(c).(Poolable); ok {
		p.Reset()
	}
	return c
}

// Add acquires a default component, attaches it to id and returns it for setup.
func (s *Store[T]) Add(id EntityID) *T {
	c := s.Acquire()
	s.Set(id, c)
	return c
}

// Set attaches c to id. A component previously attached to id is released.
func (s *Store[T]) Set(id EntityID, c *T) {
	if old, ok := s.data[id]; ok && old != c {
		s.release(old)
	}
	s.data[id] = c
}

// Get returns the component for id or an error wrapping ErrNotFound.
func (s *Store[T]) Get(id EntityID) (*T, error) {
	c, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("%T on entity %d: %w", c, id, ErrNotFound)
	}
	return c, nil
}

// Lookup is the comma-ok form of Get.
func (s *Store[T]) Lookup(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

// Remove detaches the component from id and returns it to the pool.
func (s *Store[T]) Remove(id EntityID) {
	c, ok := s.data[id]
	if !ok {
		return
	}
	delete(s.data, id)
	s.release(c)
}

func (s *Store[T]) release(c *T) {
	if p, ok := any(c).(Poolable); ok {
		p.Reset()
	} else {
		var zero T
		*c = zero
	}
	if len(s.free) < maxPooled {
		s.free = append(s.free, c)
	}
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// Pooled returns how many released instances are waiting for reuse.
func (s *Store[T]) Pooled() int {
	return len(s.free)
}

// Each visits every component in unspecified order. Use Iterate or Each2 when
// the visit order matters.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for id, c := range s.data {
		fn(id, c)
	}
}
