package commitseq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weehong/smartbootstrapper/internal/ledger"
	"github.com/weehong/smartbootstrapper/internal/progress"
)

type fakeRepo struct {
	staged   bool
	messages []string
}

func (f *fakeRepo) StageAll() error {
	f.staged = true
	return nil
}

func (f *fakeRepo) Commit(message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func writeLedger(t *testing.T, content string) *ledger.Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	l, err := ledger.Load(path)
	require.NoError(t, err)
	return l
}

func TestBaselineCommitsFixedMessage(t *testing.T) {
	r := &fakeRepo{}
	s := New(r, nil, nil)
	require.NoError(t, s.Baseline())
	assert.True(t, r.staged)
	assert.Equal(t, []string{BaselineMessage}, r.messages)
}

func TestCommitManifestUsesLedgerMessage(t *testing.T) {
	led := writeLedger(t, "1. abc1234\nImport user service\n---\n")
	r := &fakeRepo{}
	s := New(r, led, nil)
	require.NoError(t, s.CommitManifest(1))
	assert.Equal(t, []string{"Import user service"}, r.messages)
}

func TestCommitManifestSkipsWithWarningWhenLedgerEmpty(t *testing.T) {
	r := &fakeRepo{}
	collector := &progress.Collector{}
	s := New(r, nil, collector)
	require.NoError(t, s.CommitManifest(1))
	assert.Empty(t, r.messages)
	require.Len(t, collector.Events, 1)
	assert.True(t, collector.Events[0].Warning)
}

func TestCommitManifestSkipsWithWarningWhenSequenceMissing(t *testing.T) {
	led := writeLedger(t, "1. abc1234\nonly entry\n---\n")
	r := &fakeRepo{}
	collector := &progress.Collector{}
	s := New(r, led, collector)
	require.NoError(t, s.CommitManifest(2))
	assert.Empty(t, r.messages)
	require.Len(t, collector.Events, 1)
	assert.True(t, collector.Events[0].Warning)
}
