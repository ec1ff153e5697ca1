package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestDiscoverSortsBySequence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "commit-2.yaml", "sourceRepository: x\nfiles:\n  - commit: abc1234\n    sourcePath: a\n    destinationPath: a\n")
	writeFile(t, dir, "commit-1.yaml", "sourceRepository: x\nfiles:\n  - commit: abc1234\n    sourcePath: a\n    destinationPath: a\n")
	writeFile(t, dir, "notes.txt", "irrelevant")

	paths, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "commit-1.yaml", filepath.Base(paths[0]))
	assert.Equal(t, "commit-2.yaml", filepath.Base(paths[1]))
}

func TestDiscoverSingleFileFallback(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "manifest.yml", "sourceRepository: x\nfiles:\n  - commit: abc1234\n    sourcePath: a\n    destinationPath: a\n")

	paths, err := Discover(p)
	require.NoError(t, err)
	assert.Equal(t, []string{p}, paths)
}

func TestParseSequenceNumberOverride(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "commit-1.yaml", "sourceRepository: x\nsequenceNumber: 7\nfiles:\n  - commit: abc1234\n    sourcePath: a\n    destinationPath: a\n")

	m, err := Parse(p)
	require.NoError(t, err)
	assert.Equal(t, 7, m.SequenceNumber)
}

func TestParseDefaultsSourceTypeToZip(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "commit-1.yaml", "sourceRepository: x\nfiles:\n  - commit: abc1234\n    sourcePath: a\n    destinationPath: a\n")

	m, err := Parse(p)
	require.NoError(t, err)
	assert.Equal(t, SourceTypeZip, m.SourceType)
}

func TestParseRejectsShortCommit(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "commit-1.yaml", "sourceRepository: x\nfiles:\n  - commit: abc123\n    sourcePath: a\n    destinationPath: a\n")

	_, err := Parse(p)
	require.Error(t, err)
}

func TestParseAcceptsSevenHexCommit(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "commit-1.yaml", "sourceRepository: x\nfiles:\n  - commit: abc1234\n    sourcePath: a\n    destinationPath: a\n")

	_, err := Parse(p)
	require.NoError(t, err)
}

func TestParseRejectsZeroEntries(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "commit-1.yaml", "sourceRepository: x\nfiles: []\n")

	_, err := Parse(p)
	require.Error(t, err)
}

func TestParseRejectsDuplicateDestinations(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "commit-1.yaml", `sourceRepository: x
files:
  - commit: abc1234
    sourcePath: a
    destinationPath: same
  - commit: abc1234
    sourcePath: b
    destinationPath: same
`)

	_, err := Parse(p)
	require.Error(t, err)
}

func TestParseRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "commit-1.yaml", "sourceRepository: x\nfiles:\n  - commit: abc1234\n    sourcePath: ../escape\n    destinationPath: a\n")

	_, err := Parse(p)
	require.Error(t, err)
}

func TestParseSetRejectsDuplicateSequenceNumbers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "commit-1.yaml", "sourceRepository: x\nsequenceNumber: 5\nfiles:\n  - commit: abc1234\n    sourcePath: a\n    destinationPath: a\n")
	writeFile(t, dir, "commit-2.yaml", "sourceRepository: x\nsequenceNumber: 5\nfiles:\n  - commit: abc1234\n    sourcePath: b\n    destinationPath: b\n")

	_, err := ParseSet(dir)
	require.Error(t, err)
}

func TestInferBasePackageLongestCommonPrefix(t *testing.T) {
	entries := []Entry{
		{SourcePath: "src/main/java/com/old/app/one/Svc.java"},
		{SourcePath: "src/main/java/com/old/app/two/Other.java"},
	}
	got := InferBasePackage(entries, func(e Entry) string { return e.SourcePath })
	assert.Equal(t, "com.old.app", got)
}

func TestInferBasePackageNoJavaFiles(t *testing.T) {
	entries := []Entry{{SourcePath: "README.md"}}
	got := InferBasePackage(entries, func(e Entry) string { return e.SourcePath })
	assert.Equal(t, "", got)
}

func TestDetectSourceAndDestinationPackagesMayDiffer(t *testing.T) {
	m := &Manifest{Entries: []Entry{
		{SourcePath: "src/main/java/com/old/app/Svc.java", DestinationPath: "src/main/java/com/transitional/app/Svc.java"},
	}}
	assert.Equal(t, "com.old.app", DetectSourceBasePackage(m))
	assert.Equal(t, "com.transitional.app", DetectDestinationBasePackage(m))
}
