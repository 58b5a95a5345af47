package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifierCacheBasic(t *testing.T) {
	a := assert.New(t)

	c := New(2)
	a.False(c.Has("a"))

	c.Insert("a")
	a.True(c.Has("a"))
	a.Equal(1, c.Len())
}

func TestIdentifierCacheEvictsLeastRecentlyUsed(t *testing.T) {
	a := assert.New(t)

	c := New(2)
	c.Insert("a")
	c.Insert("b")

	// re-insert "a" so it becomes most-recently-used; insert is the only
	// operation that promotes
	c.Insert("a")

	c.Insert("c") // should evict "b", not "a"

	a.True(c.Has("a"))
	a.False(c.Has("b"))
	a.True(c.Has("c"))
}

func TestIdentifierCacheHasDoesNotPromote(t *testing.T) {
	a := assert.New(t)

	c := New(2)
	c.Insert("a")
	c.Insert("b")

	// repeated presence checks on "a" must not protect it from eviction
	for i := 0; i < 5; i++ {
		a.True(c.Has("a"))
	}

	c.Insert("c") // "a" is still the least-recently-used entry

	a.False(c.Has("a"))
	a.True(c.Has("b"))
	a.True(c.Has("c"))
}

func TestIdentifierCacheDefaultCapacity(t *testing.T) {
	c := New(0)
	assert.NotNil(t, c)
}

type fakeCompletedSource struct {
	ids []string
}

func (f fakeCompletedSource) IterCompletedIDs(yield func(string) bool) error {
	for _, id := range f.ids {
		if !yield(id) {
			break
		}
	}
	return nil
}

func TestSeedFromStore(t *testing.T) {
	a := assert.New(t)

	c := New(10)
	src := fakeCompletedSource{ids: []string{"x", "y", "z"}}

	a.NoError(SeedFromStore(c, src))
	a.True(c.Has("x"))
	a.True(c.Has("y"))
	a.True(c.Has("z"))
	a.Equal(3, c.Len())
}
