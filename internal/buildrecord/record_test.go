package buildrecord

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const compiler = "fgdeps version 1.0.0"

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "Demo.record.yaml")
	mtime := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	r := New(compiler)
	r.BuildTime = mtime
	r.GraphValid = true
	r.Inputs["src/b.swift"] = InputInfo{Status: NeedsCascadingBuild, ModTime: mtime}
	r.Inputs["src/a.swift"] = InputInfo{Status: UpToDate, ModTime: mtime}

	require.NoError(t, Save(context.Background(), path, r))
	loaded, err := Load(context.Background(), path, compiler)

	require.NoError(t, err)
	assert.Equal(t, r, loaded)
	assert.Equal(t, []string{"src/a.swift", "src/b.swift"}, loaded.Paths())
}

func TestLoad_Unusable(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{name: "not yaml", doc: "version: [1"},
		{name: "wrong version", doc: "version: 7\ncompiler_version: " + compiler},
		{name: "other compiler", doc: "version: 1\ncompiler_version: other 2.0"},
		{name: "next minor release", doc: "version: 1\ncompiler_version: fgdeps version 1.1.0"},
		{name: "unknown status", doc: "version: 1\ncompiler_version: " + compiler + "\ninputs:\n  a.swift: {status: dirty}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "record.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.doc), 0o644))

			_, err := Load(context.Background(), path, compiler)
			assert.ErrorIs(t, err, ErrUnusable)
		})
	}

	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), compiler)
	assert.ErrorIs(t, err, ErrUnusable)
}

func TestLoad_PatchRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.yaml")
	r := New(compiler)
	r.GraphValid = true
	require.NoError(t, Save(context.Background(), path, r))

	loaded, err := Load(context.Background(), path, "fgdeps version 1.0.3")

	require.NoError(t, err)
	assert.Equal(t, compiler, loaded.CompilerVersion, "the record keeps the version it was written by")
	assert.True(t, loaded.GraphValid)
}

func TestCompatibleCompilers(t *testing.T) {
	testCases := []struct {
		written, current string
		want             bool
	}{
		{"fgdeps 1.0.0", "fgdeps 1.0.0", true},
		{"fgdeps 1.0.0", "fgdeps 1.0.7", true},
		{"fgdeps 1.0.7", "fgdeps 1.0.0", true},
		{"fgdeps 1.0.0", "fgdeps 1.1.0", false},
		{"fgdeps 1.0.0", "fgdeps 2.0.0", false},
		{"custom", "fgdeps 1.0.0", false},
		{"", "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.written+"->"+tc.current, func(t *testing.T) {
			assert.Equal(t, tc.want, CompatibleCompilers(tc.written, tc.current))
		})
	}
}

func TestLockDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	lock, err := LockDir(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	require.NoError(t, lock.Unlock())
	again, err := LockDir(dir)
	require.NoError(t, err, "lock can be taken again after release")
	require.NoError(t, again.Unlock())

	var none *Lock
	assert.NoError(t, none.Unlock())
}
