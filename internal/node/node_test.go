package node

import (
	"testing"

	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/unit"
	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	var none Fingerprint
	empty := NewFingerprint("")
	abc := NewFingerprint("abc")

	assert.False(t, none.IsSet())
	assert.True(t, empty.IsSet())
	assert.NotEqual(t, none, empty, "an empty fingerprint is still a fingerprint")
	assert.Equal(t, abc, NewFingerprint("abc"))

	v, ok := abc.Value()
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestIdentity_IgnoresFingerprint(t *testing.T) {
	key := depkey.NewKey(depkey.Interface, depkey.TopLevelName("f"))
	owner := unit.NewHandle("a.swiftdeps")

	n1 := New(key, NewFingerprint("1"), owner)
	n2 := New(key, NewFingerprint("2"), owner)
	n3 := New(key, NewFingerprint("1"), unit.NewHandle("b.swiftdeps"))

	assert.Equal(t, n1.Identity(), n2.Identity())
	assert.NotEqual(t, n1.Identity(), n3.Identity())
	assert.NotEqual(t, n1, n2)
}

func TestNode_Less(t *testing.T) {
	a := New(depkey.NewKey(depkey.Interface, depkey.NominalContext("S")), Fingerprint{}, unit.NewHandle("a.swiftdeps"))
	b := New(depkey.NewKey(depkey.Interface, depkey.TopLevelName("f")), Fingerprint{}, unit.NewHandle("b.swiftdeps"))
	expat := New(depkey.NewKey(depkey.Interface, depkey.TopLevelName("g")), Fingerprint{}, unit.Handle{})

	assert.True(t, expat.Less(a), "expats sort first")
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, expat.IsExpat())
	assert.False(t, a.IsExpat())
}
