package ecs

// Matcher reports whether an entity carries some component. Every *Store[T]
// satisfies it.
type Matcher interface {
	Has(id EntityID) bool
}

// Iterate calls fn for every live entity present in all stores, in entity
// creation order. The entity list is snapshotted before the first visit, so fn
// may create, remove or mutate entities: removed siblings are skipped, entities
// created during the visit wait for the next call, and nothing is visited twice.
func Iterate(w *World, fn func(EntityID), stores ...Matcher) {
	for _, id := range w.Entities() {
		if !w.Alive(id) || !matches(id, stores) {
			continue
		}
		fn(id)
	}
}

func matches(id EntityID, stores []Matcher) bool {
	for _, s := range stores {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Each2 iterates over entities that have both component A and B, in creation order.
func Each2[A, B any](w *World, sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	Iterate(w, func(id EntityID) {
		a, okA := sa.data[id]
		b, okB := sb.data[id]
		if okA && okB {
			fn(id, a, b)
		}
	}, sa, sb)
}

// Each3 iterates over entities that have components A, B, and C, in creation order.
func Each3[A, B, C any](w *World, sa *Store[A], sb *Store[B], sc *Store[C], fn func(EntityID, *A, *B, *C)) {
	Iterate(w, func(id EntityID) {
		a, okA := sa.data[id]
		b, okB := sb.data[id]
		c, okC := sc.data[id]
		if okA && okB && okC {
			fn(id, a, b, c)
		}
	}, sa, sb, sc)
}
