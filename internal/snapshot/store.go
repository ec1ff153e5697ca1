// Package snapshot implements the Snapshot Store (C1): a uniform
// read interface over a VCS repository and over a directory of ZIP
// archives named by commit identifier.
//
// The teacher's VCS capability table (surgeon/vcs.go) models many
// version-control systems as one struct of shelled-out command
// templates; this package narrows that down to the two backends the
// spec calls for, expressed as a tagged variant (§9) rather than a
// type hierarchy.
package snapshot

import (
	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
)

// Store is the capability set of §4.1: CommitExists, FileExistsAt,
// ReadBytes, ListAvailableCommits.
type Store interface {
	// CommitExists reports whether id (7+ char abbreviated or full
	// hex) names a commit this store knows about.
	CommitExists(id string) (bool, error)

	// FileExistsAt reports whether path exists in the tree at commit id.
	FileExistsAt(id, path string) (bool, error)

	// ReadBytes reads path's content at commit id. Returns a
	// *bootstraperr.Error of KindSnapshot (commit-not-found or
	// file-not-found) on failure; never returns a silent empty read.
	ReadBytes(id, path string) ([]byte, error)

	// ListAvailableCommits returns every commit identifier the store
	// knows about, for diagnostics.
	ListAvailableCommits() ([]string, error)

	// Close releases the backend's held handle (open repo, open
	// archive directory).
	Close() error
}

func notFoundCommit(backend, id string) error {
	return bootstraperr.New(bootstraperr.KindSnapshot, "commit %q not found in %s snapshot store", id, backend).
		WithCommit(id).
		WithSuggestion(bootstraperr.Suggest(bootstraperr.KindSnapshot))
}

func notFoundFile(backend, id, path string) error {
	return bootstraperr.New(bootstraperr.KindSnapshot, "file %q not found at commit %q in %s snapshot store", path, id, backend).
		WithCommit(id).
		WithSuggestion(bootstraperr.Suggest(bootstraperr.KindSnapshot))
}
