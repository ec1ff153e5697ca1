package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
	"github.com/weehong/smartbootstrapper/internal/commitseq"
	"github.com/weehong/smartbootstrapper/internal/config"
	"github.com/weehong/smartbootstrapper/internal/manifest"
	"github.com/weehong/smartbootstrapper/internal/snapshot"
)

type fakeRepo struct {
	inited   bool
	messages []string
}

func (f *fakeRepo) Init() error          { f.inited = true; return nil }
func (f *fakeRepo) StageAll() error      { return nil }
func (f *fakeRepo) Commit(msg string) error {
	f.messages = append(f.messages, msg)
	return nil
}

type fakeStore struct {
	files map[string][]byte // "commit/path" -> content
	fail  bool
}

func storeKey(commit, path string) string { return commit + "/" + path }

func (s *fakeStore) CommitExists(id string) (bool, error) { return true, nil }
func (s *fakeStore) FileExistsAt(id, path string) (bool, error) {
	_, ok := s.files[storeKey(id, path)]
	return ok, nil
}
func (s *fakeStore) ReadBytes(id, path string) ([]byte, error) {
	if s.fail {
		return nil, bootstraperr.New(bootstraperr.KindSnapshot, "file %q not found at commit %q", path, id)
	}
	content, ok := s.files[storeKey(id, path)]
	if !ok {
		return nil, bootstraperr.New(bootstraperr.KindSnapshot, "file %q not found at commit %q", path, id)
	}
	return content, nil
}
func (s *fakeStore) ListAvailableCommits() ([]string, error) { return nil, nil }
func (s *fakeStore) Close() error                            { return nil }

func writeManifestYAML(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func newOrchestratorUnderTest(t *testing.T, cfg *config.Project, store *fakeStore, repo *fakeRepo, skeletonFiles map[string]string) *Orchestrator {
	t.Helper()
	skeletonDir := t.TempDir()
	for name, content := range skeletonFiles {
		require.NoError(t, os.MkdirAll(filepath.Join(skeletonDir, filepath.Dir(name)), 0775))
		require.NoError(t, os.WriteFile(filepath.Join(skeletonDir, name), []byte(content), 0644))
	}

	// Fetch returns fetchDir, a separate copy of the skeleton files,
	// since Run removes the directory it is handed (defer os.RemoveAll)
	// before returning.
	fetchDir := t.TempDir()
	for name, content := range skeletonFiles {
		require.NoError(t, os.MkdirAll(filepath.Join(fetchDir, filepath.Dir(name)), 0775))
		require.NoError(t, os.WriteFile(filepath.Join(fetchDir, name), []byte(content), 0644))
	}

	return &Orchestrator{
		Project: cfg,
		Sink:    nil,
		FetchSkeleton: func(ctx context.Context, cfg *config.Project) (string, error) {
			return fetchDir, nil
		},
		OpenSnapshot: func(m *manifest.Manifest) (snapshot.Store, error) {
			return store, nil
		},
		OpenRepo: func(dir string) repo {
			return repo
		},
	}
}

func TestRunHappyPathReplaysManifestAndCommits(t *testing.T) {
	manifestDir := t.TempDir()
	writeManifestYAML(t, manifestDir, "commit-1.yaml", `
sourceRepository: fake
files:
  - commit: abc1234
    sourcePath: src/main/java/com/old/app/Svc.java
    destinationPath: src/main/java/com/old/app/Svc.java
`)
	writeManifestYAML(t, manifestDir, LedgerFilename, "1. abc1234\n\nfeat: add svc\n---\n")

	store := &fakeStore{files: map[string][]byte{
		storeKey("abc1234", "src/main/java/com/old/app/Svc.java"): []byte("package com.old.app;\n\npublic class Svc {}\n"),
	}}
	repo := &fakeRepo{}

	targetDir := filepath.Join(t.TempDir(), "out")
	cfg := &config.Project{
		OldPackage: "com.old.app",
		NewPackage: "com.new.api",
		TargetDir:  targetDir,
	}

	o := newOrchestratorUnderTest(t, cfg, store, repo, map[string]string{"pom.xml": "<project/>"})

	summary, err := o.Run(context.Background(), filepath.Join(manifestDir, "commit-1.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ManifestsReplayed)
	assert.Equal(t, 2, summary.CommitsCreated)
	assert.True(t, repo.inited)
	assert.Equal(t, []string{commitseq.BaselineMessage, "feat: add svc"}, repo.messages)

	data, err := os.ReadFile(filepath.Join(targetDir, "src/main/java/com/new/api/Svc.java"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "package com.new.api;")

	_, err = os.Stat(filepath.Join(targetDir, "pom.xml"))
	require.NoError(t, err)
}

func TestRunRollsBackAndRemovesFreshTargetOnHarvestFailure(t *testing.T) {
	manifestDir := t.TempDir()
	writeManifestYAML(t, manifestDir, "commit-1.yaml", `
sourceRepository: fake
files:
  - commit: abc1234
    sourcePath: src/main/java/com/old/app/Svc.java
    destinationPath: src/main/java/com/old/app/Svc.java
`)

	store := &fakeStore{fail: true}
	repo := &fakeRepo{}

	targetDir := filepath.Join(t.TempDir(), "out")
	cfg := &config.Project{
		OldPackage: "com.old.app",
		NewPackage: "com.new.api",
		TargetDir:  targetDir,
	}

	o := newOrchestratorUnderTest(t, cfg, store, repo, map[string]string{"pom.xml": "<project/>"})

	_, err := o.Run(context.Background(), filepath.Join(manifestDir, "commit-1.yaml"))
	require.Error(t, err)

	berr, ok := err.(*bootstraperr.Error)
	require.True(t, ok)
	assert.Equal(t, bootstraperr.KindSnapshot, berr.Kind)

	_, statErr := os.Stat(targetDir)
	assert.True(t, os.IsNotExist(statErr), "expected target directory to be removed after rollback, got err=%v", statErr)
}
