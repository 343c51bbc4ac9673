package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Value   int
	Label   string
	Enabled bool
}

func (c *counter) Reset() {
	c.Value = 0
	c.Label = "default"
	c.Enabled = true
}

type plain struct {
	N int
}

func TestEntityPoolReusesIndexWithNewGeneration(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	require.False(t, a.IsZero())
	require.True(t, p.Alive(a))

	require.True(t, p.Destroy(a))
	assert.False(t, p.Alive(a))
	assert.False(t, p.Destroy(a), "double destroy must be ignored")

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index())
	assert.NotEqual(t, a.Generation(), b.Generation())
	assert.False(t, p.Alive(a))
	assert.True(t, p.Alive(b))
	assert.Equal(t, 1, p.Len())
}

func TestFreshComponentHasDefaults(t *testing.T) {
	w := NewWorld()
	counters := NewComponentStore[counter](w)

	c := counters.Add(w.CreateEntity())
	assert.Equal(t, counter{Label: "default", Enabled: true}, *c)
}

func TestReleasedComponentIsResetBeforeReuse(t *testing.T) {
	w := NewWorld()
	counters := NewComponentStore[counter](w)
	plains := NewComponentStore[plain](w)

	for round := 0; round < 5; round++ {
		id := w.CreateEntity()
		c := counters.Add(id)
		c.Value = 40 + round
		c.Label = "dirty"
		c.Enabled = false
		plains.Add(id).N = 7

		w.RemoveEntity(id)
		require.Equal(t, 1, counters.Pooled())
		require.Equal(t, 1, plains.Pooled())

		reused := counters.Acquire()
		assert.Same(t, c, reused)
		assert.Equal(t, counter{Label: "default", Enabled: true}, *reused)
		assert.Equal(t, plain{}, *plains.Acquire())
	}
}

func TestSetReleasesReplacedComponent(t *testing.T) {
	w := NewWorld()
	counters := NewComponentStore[counter](w)
	id := w.CreateEntity()

	first := counters.Add(id)
	first.Value = 3
	counters.Set(id, counters.Acquire())

	assert.Equal(t, 1, counters.Pooled())
	assert.Equal(t, 0, first.Value)
}

func TestGetMissingComponent(t *testing.T) {
	w := NewWorld()
	counters := NewComponentStore[counter](w)

	_, err := counters.Get(w.CreateEntity())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFindSingleton(t *testing.T) {
	w := NewWorld()
	counters := NewComponentStore[counter](w)

	_, err := FindSingleton(w, counters)
	assert.ErrorIs(t, err, ErrNotFound)

	first := w.CreateEntity()
	counters.Add(first)
	id, err := FindSingleton(w, counters)
	require.NoError(t, err)
	assert.Equal(t, first, id)

	second := w.CreateEntity()
	counters.Add(second)
	_, err = FindSingleton(w, counters)
	assert.ErrorIs(t, err, ErrAmbiguousSingleton)

	w.RemoveEntity(first)
	id, err = FindSingleton(w, counters)
	require.NoError(t, err)
	assert.Equal(t, second, id)
}

func TestIterateToleratesRemovalOfCurrentEntity(t *testing.T) {
	w := NewWorld()
	counters := NewComponentStore[counter](w)
	var ids []EntityID
	for i := 0; i < 6; i++ {
		id := w.CreateEntity()
		counters.Add(id).Value = i
		ids = append(ids, id)
	}

	var visited []int
	Iterate(w, func(id EntityID) {
		c, _ := counters.Lookup(id)
		visited = append(visited, c.Value)
		if c.Value%2 == 0 {
			w.RemoveEntity(id)
		}
	}, counters)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, visited)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []EntityID{ids[1], ids[3], ids[5]}, w.Entities())
}

func TestIterateSkipsSiblingsRemovedAhead(t *testing.T) {
	w := NewWorld()
	counters := NewComponentStore[counter](w)
	a, b, c := w.CreateEntity(), w.CreateEntity(), w.CreateEntity()
	for _, id := range []EntityID{a, b, c} {
		counters.Add(id)
	}

	var visited []EntityID
	Iterate(w, func(id EntityID) {
		visited = append(visited, id)
		if id == a {
			w.RemoveEntity(b)
			w.CreateEntity()
		}
	}, counters)

	assert.Equal(t, []EntityID{a, c}, visited)
}

func TestEach2MatchesIntersectionInCreationOrder(t *testing.T) {
	w := NewWorld()
	counters := NewComponentStore[counter](w)
	plains := NewComponentStore[plain](w)

	onlyCounter := w.CreateEntity()
	counters.Add(onlyCounter)
	both1 := w.CreateEntity()
	counters.Add(both1)
	plains.Add(both1).N = 1
	onlyPlain := w.CreateEntity()
	plains.Add(onlyPlain)
	both2 := w.CreateEntity()
	plains.Add(both2).N = 2
	counters.Add(both2)

	var got []int
	Each2(w, counters, plains, func(_ EntityID, _ *counter, p *plain) {
		got = append(got, p.N)
	})
	assert.Equal(t, []int{1, 2}, got)
}

func TestDeferredDestruction(t *testing.T) {
	w := NewWorld()
	counters := NewComponentStore[counter](w)
	id := w.CreateEntity()
	counters.Add(id)

	w.MarkForDestruction(id)
	w.MarkForDestruction(id)
	assert.True(t, w.Alive(id))

	assert.Equal(t, 1, w.FlushDestroyQueue())
	assert.False(t, w.Alive(id))
	assert.False(t, counters.Has(id))
	assert.Equal(t, 0, w.FlushDestroyQueue())
}
