package summary

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
facts:
  - role: def
    kind: topLevel
    name: f
    fingerprint: "1"
  - role: def
    aspect: implementation
    kind: topLevel
    name: f
  - role: use
    kind: member
    context: S
    name: x
    by: {aspect: implementation, kind: topLevel, name: f}
  - role: use
    kind: externalDepend
    name: /sdk/Foundation.swiftmodule
`

func TestDecode(t *testing.T) {
	s, err := Decode([]byte(sample))
	require.NoError(t, err)
	require.Len(t, s.Facts, 4)

	f := depkey.NewKey(depkey.Interface, depkey.TopLevelName("f"))
	assert.Equal(t, Def(f, node.NewFingerprint("1")), s.Facts[0])
	assert.Equal(t, Def(f.Correspondent(), node.Fingerprint{}), s.Facts[1])
	assert.Equal(t, UseBy(depkey.NewKey(depkey.Interface, depkey.MemberOf("S", "x")), f.Correspondent()), s.Facts[2])
	assert.Equal(t, UseOf(depkey.InterfaceOf(depkey.NewExternalDependency("/sdk/Foundation.swiftmodule"))), s.Facts[3])
}

func TestDecode_Malformed(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{name: "not yaml", doc: "facts: [unterminated"},
		{name: "unknown role", doc: "facts: [{role: provides, kind: topLevel, name: f}]"},
		{name: "unknown kind", doc: "facts: [{role: def, kind: macro, name: f}]"},
		{name: "unknown aspect", doc: "facts: [{role: def, aspect: public, kind: topLevel, name: f}]"},
		{name: "bogus context", doc: "facts: [{role: def, kind: topLevel, context: S, name: f}]"},
		{name: "definition with by", doc: "facts: [{role: def, kind: topLevel, name: f, by: {kind: topLevel, name: g}}]"},
		{name: "bad by", doc: "facts: [{role: use, kind: topLevel, name: f, by: {kind: nominal, context: S, name: g}}]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.doc))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEncode_DecodesBack(t *testing.T) {
	f := depkey.NewKey(depkey.Interface, depkey.TopLevelName("f"))
	original := New(
		Def(f, node.NewFingerprint("")),
		UseBy(depkey.NewKey(depkey.Interface, depkey.NominalContext("S")), f),
		UseOf(depkey.NewKey(depkey.Implementation, depkey.DynamicLookupName("m"))),
	)

	data, err := Encode(original)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, original, decoded)
}

func TestFileReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.swiftdeps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	s, err := FileReader{}.Read(context.Background(), unit.NewHandle(path))
	require.NoError(t, err)
	assert.Len(t, s.Facts, 4)

	_, err = FileReader{}.Read(context.Background(), unit.NewHandle(filepath.Join(dir, "missing.yaml")))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = FileReader{}.Read(context.Background(), unit.Handle{})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSummary_ForEachFactOnNil(t *testing.T) {
	var s *Summary
	count := 0
	s.ForEachFact(func(Fact) { count++ })
	assert.Zero(t, count)
}
