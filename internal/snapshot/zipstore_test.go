package snapshot

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for entryName, content := range entries {
		w, err := zw.Create(entryName)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestZipStoreFlatArchive(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, dir, "proj-abc1234567890abc1234567890abc123456789.zip", map[string]string{
		"src/main/java/com/old/app/Svc.java": "package com.old.app;",
	})

	store, err := NewZipStore(dir)
	require.NoError(t, err)
	defer store.Close()

	ok, err := store.CommitExists("abc1234")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := store.ReadBytes("abc1234", "src/main/java/com/old/app/Svc.java")
	require.NoError(t, err)
	assert.Contains(t, string(data), "package com.old.app;")
}

func TestZipStoreNestedSingleTopLevelDirectory(t *testing.T) {
	dir := t.TempDir()
	// As produced by GitHub-style "download zip" buttons: everything
	// nested under "<repo>-<ref>/".
	writeZip(t, dir, "proj-def4567890def4567890def4567890def456789.zip", map[string]string{
		"proj-main/src/main/java/com/old/app/Svc.java": "package com.old.app;",
	})

	store, err := NewZipStore(dir)
	require.NoError(t, err)
	defer store.Close()

	data, err := store.ReadBytes("def4567", "src/main/java/com/old/app/Svc.java")
	require.NoError(t, err)
	assert.Contains(t, string(data), "package com.old.app;")
}

func TestZipStoreFileNotFound(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, dir, "proj-aaa1111111111111111111111111111111111.zip", map[string]string{
		"present.txt": "hi",
	})
	store, err := NewZipStore(dir)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.ReadBytes("aaa1111", "absent.txt")
	require.Error(t, err)
}

func TestZipStoreCommitNotFound(t *testing.T) {
	dir := t.TempDir()
	store, err := NewZipStore(dir)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.ReadBytes("0000000", "anything.txt")
	require.Error(t, err)
}

func TestZipStoreSixHexCharsRejected(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, dir, "proj-abc1234567890abc1234567890abc123456789.zip", map[string]string{"f.txt": "x"})
	store, err := NewZipStore(dir)
	require.NoError(t, err)
	defer store.Close()

	ok, _ := store.CommitExists("abc123") // 6 chars
	assert.False(t, ok)
}
