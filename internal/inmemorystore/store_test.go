package inmemorystore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/unit"
	"github.com/stretchr/testify/assert"
)

func identity(name, owner string) node.Identity {
	return node.Identity{
		Key:   depkey.NewKey(depkey.Interface, depkey.TopLevelName(name)),
		Owner: unit.NewHandle(owner),
	}
}

func TestMarkAndUntrace(t *testing.T) {
	s := New()
	id := identity("f", "a.swiftdeps")

	assert.False(t, s.IsTraced(id))

	assert.True(t, s.MarkTraced(id))
	assert.True(t, s.IsTraced(id))
	assert.False(t, s.MarkTraced(id), "second mark is a no-op")
	assert.Equal(t, 1, s.Len())

	s.Untrace(id)
	assert.False(t, s.IsTraced(id))
	assert.Equal(t, 0, s.Len())

	s.Untrace(id)
	assert.Equal(t, 0, s.Len(), "untracing an unmarked node does nothing")
}

func TestMarksAreKeyedByIdentity(t *testing.T) {
	s := New()
	s.MarkTraced(identity("f", "a.swiftdeps"))

	assert.False(t, s.IsTraced(identity("f", "b.swiftdeps")), "same key, other owner")
	assert.False(t, s.IsTraced(identity("g", "a.swiftdeps")), "same owner, other key")
}

func TestConcurrentMarks(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := identity(fmt.Sprintf("f%d", i%10), "a.swiftdeps")
			s.MarkTraced(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, s.Len())
}
