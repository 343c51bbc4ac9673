package ecs

import "fmt"

// World is the top-level ECS container. It owns the entity pool, the component
// registry, the live entity order used for deterministic iteration, and a
// deferred destruction queue flushed by CleanupSystem each tick.
type World struct {
	pool         *EntityPool
	registry     *Registry
	order        []EntityID
	destroyQueue []EntityID
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		order:        make([]EntityID, 0, 256),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

// NewComponentStore creates a store for T and registers it with w so
// RemoveEntity releases its components.
func NewComponentStore[T any](w *World) *Store[T] {
	s := NewStore[T]()
	w.registry.Register(s)
	return s
}

func (w *World) CreateEntity() EntityID {
	id := w.pool.Create()
	w.order = append(w.order, id)
	return id
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return len(w.order)
}

// Entities returns a snapshot of live entities in creation order.
func (w *World) Entities() []EntityID {
	out := make([]EntityID, len(w.order))
	copy(out, w.order)
	return out
}

// RemoveEntity immediately releases every component of id and invalidates it.
// Safe to call while Iterate is visiting id or any sibling.
func (w *World) RemoveEntity(id EntityID) {
	if !w.pool.Alive(id) {
		return
	}
	w.registry.RemoveAll(id)
	w.pool.Destroy(id)
	for i, e := range w.order {
		if e == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities and clears their components.
// Called by CleanupSystem at the end of each tick. Returns how many were destroyed.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		if w.pool.Alive(id) {
			w.RemoveEntity(id)
			n++
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

// FindSingleton returns the only live entity holding a component in s.
// It fails with ErrNotFound when none does and ErrAmbiguousSingleton when
// several do.
func FindSingleton[T any](w *World, s *Store[T]) (EntityID, error) {
	var found EntityID
	count := 0
	for _, id := range w.order {
		if s.Has(id) {
			found = id
			count++
		}
	}
	switch count {
	case 0:
		return 0, fmt.Errorf("singleton %T: %w", (*T)(nil), ErrNotFound)
	case 1:
		return found, nil
	default:
		return 0, fmt.Errorf("singleton %T held by %d entities: %w", (*T)(nil), count, ErrAmbiguousSingleton)
	}
}
