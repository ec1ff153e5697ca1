package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLedger(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "MESSAGES.txt")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadParsesEntriesSeparatedByDashes(t *testing.T) {
	p := writeLedger(t, "1. abc1234\n\nfeat: add svc\n---\n3. def5678\n\nfix: bug\n")
	l, err := Load(p)
	require.NoError(t, err)

	msg, ok := l.MessageFor(1)
	require.True(t, ok)
	assert.Equal(t, "feat: add svc", msg)

	msg, ok = l.MessageFor(3)
	require.True(t, ok)
	assert.Equal(t, "fix: bug", msg)

	_, ok = l.MessageFor(2)
	assert.False(t, ok)
}

func TestLoadMissingFileIsEmptyNotError(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "nonexistent.txt"))
	require.NoError(t, err)
	assert.True(t, l.Empty())
}

func TestLoadSkipsUnparseableEntryNonFatal(t *testing.T) {
	p := writeLedger(t, "not a header\nsome text\n---\n2. abc1234\n\nfeat: ok\n")
	l, err := Load(p)
	require.NoError(t, err)

	_, ok := l.MessageFor(2)
	assert.True(t, ok)
}

func TestMultilineMessageBody(t *testing.T) {
	p := writeLedger(t, "1. abc1234\n\nfeat: add svc\n\nLonger description line.\n")
	l, err := Load(p)
	require.NoError(t, err)
	msg, ok := l.MessageFor(1)
	require.True(t, ok)
	assert.Contains(t, msg, "Longer description line.")
}
