package skeleton

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weehong/smartbootstrapper/internal/config"
)

func writeTestZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skeleton.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestExtractZipStripsSingleTopLevelDirectory(t *testing.T) {
	archivePath := writeTestZip(t, map[string]string{
		"demo-main/pom.xml":                       "<project/>",
		"demo-main/src/main/java/com/demo/App.java": "package com.demo;",
	})
	destDir := t.TempDir()

	require.NoError(t, extractZip(archivePath, destDir))

	data, err := os.ReadFile(filepath.Join(destDir, "pom.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<project/>", string(data))

	_, err = os.Stat(filepath.Join(destDir, "src/main/java/com/demo/App.java"))
	require.NoError(t, err)
}

func TestExtractZipFlatArchive(t *testing.T) {
	archivePath := writeTestZip(t, map[string]string{
		"pom.xml": "<project/>",
	})
	destDir := t.TempDir()

	require.NoError(t, extractZip(archivePath, destDir))

	_, err := os.Stat(filepath.Join(destDir, "pom.xml"))
	require.NoError(t, err)
}

func TestBuildURLEncodesProjectFields(t *testing.T) {
	u, err := buildURL(Request{
		BaseURL: "https://example.test/starter.zip",
		Project: &config.Project{GroupID: "com.example", ArtifactID: "demo"},
	})
	require.NoError(t, err)
	assert.Contains(t, u, "https://example.test/starter.zip")
	assert.Contains(t, u, "groupId=com.example")
	assert.Contains(t, u, "artifactId=demo")
}
