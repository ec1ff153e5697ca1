package txwriter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileCreatesNestedDirectories(t *testing.T) {
	root := t.TempDir()
	w := New(root)

	err := w.WriteFile("src/main/java/com/new/app/Svc.java", []byte("package com.new.app;"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "src/main/java/com/new/app/Svc.java"))
	require.NoError(t, err)
	assert.Equal(t, "package com.new.app;", string(data))
}

func TestResolveRejectsPathEscape(t *testing.T) {
	root := t.TempDir()
	w := New(root)

	err := w.WriteFile("../escape.txt", []byte("x"))
	assert.Error(t, err)

	err = w.WriteFile("/etc/passwd", []byte("x"))
	assert.Error(t, err)
}

func TestRollbackRemovesCreatedFilesAndDirectories(t *testing.T) {
	root := t.TempDir()
	w := New(root)

	require.NoError(t, w.WriteFile("a/b/c.txt", []byte("new")))
	require.NoError(t, w.Rollback())

	_, err := os.Stat(filepath.Join(root, "a/b/c.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "a"))
	assert.True(t, os.IsNotExist(err))
}

func TestRollbackRestoresModifiedFileContent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "existing.txt"), []byte("original"), 0664))

	w := New(root)
	require.NoError(t, w.WriteFile("existing.txt", []byte("overwritten")))
	require.NoError(t, w.Rollback())

	data, err := os.ReadFile(filepath.Join(root, "existing.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestRollbackIsIdempotent(t *testing.T) {
	root := t.TempDir()
	w := New(root)
	require.NoError(t, w.WriteFile("a/b.txt", []byte("x")))
	require.NoError(t, w.Rollback())
	require.NoError(t, w.Rollback())
}

func TestCommitClearsJournalSoRollbackIsNoOp(t *testing.T) {
	root := t.TempDir()
	w := New(root)
	require.NoError(t, w.WriteFile("a.txt", []byte("x")))
	w.Commit()
	assert.Equal(t, 0, w.Pending())

	require.NoError(t, w.Rollback())
	_, err := os.Stat(filepath.Join(root, "a.txt"))
	require.NoError(t, err) // still present: Commit finalized it
}

func TestPreexistingDirectoryIsNotRemovedOnRollback(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "pre"), 0775))

	w := New(root)
	require.NoError(t, w.WriteFile("pre/new.txt", []byte("x")))
	require.NoError(t, w.Rollback())

	_, err := os.Stat(filepath.Join(root, "pre"))
	require.NoError(t, err) // the pre-existing directory survives
	_, err = os.Stat(filepath.Join(root, "pre/new.txt"))
	assert.True(t, os.IsNotExist(err))
}
