// Package txwriter implements the Transactional Writer (C5): staging
// every refactored artifact onto the filesystem while recording enough
// of a rollback journal to undo a partially-completed write on any
// later failure.
package txwriter

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
)

// userReadWriteSearchMode is the directory mode used for any
// directory this writer creates: rwxrwxr-x.
const userReadWriteSearchMode = 0775

// mutationKind tags a single recorded filesystem change.
type mutationKind int

const (
	mutationFileCreated mutationKind = iota
	mutationFileModified
	mutationDirectoryCreated
)

// mutation is one entry of the rollback journal.
type mutation struct {
	kind     mutationKind
	path     string
	original []byte // prior content, for mutationFileModified
}

// Writer stages writes under root, recording an in-memory journal that
// Rollback replays in reverse. The journal is append-only during a
// transaction and is explicitly cleared by Commit.
type Writer struct {
	root    string
	journal []mutation
}

// New returns a Writer rooted at root. root must already exist.
func New(root string) *Writer {
	return &Writer{root: root}
}

// resolve canonicalizes path relative to the writer's root and refuses
// any path that would escape it, per §4.5's path-escape invariant.
func (w *Writer) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(relPath)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || filepath.IsAbs(cleaned) {
		return "", bootstraperr.New(bootstraperr.KindWrite, "refusing to write outside target directory: %s", relPath)
	}
	full := filepath.Join(w.root, cleaned)
	rootWithSep := filepath.Clean(w.root) + string(filepath.Separator)
	if full != filepath.Clean(w.root) && !strings.HasPrefix(full, rootWithSep) {
		return "", bootstraperr.New(bootstraperr.KindWrite, "refusing to write outside target directory: %s", relPath)
	}
	return full, nil
}

// WriteFile stages content at relPath under the writer's root,
// creating any missing parent directories. Each newly created
// directory and the file's prior state (if any) are recorded in the
// journal before the mutation is made, so Rollback can undo it.
func (w *Writer) WriteFile(relPath string, content []byte) error {
	full, err := w.resolve(relPath)
	if err != nil {
		return err
	}

	if err := w.mkdirAllRecorded(filepath.Dir(full)); err != nil {
		return err
	}

	prior, readErr := os.ReadFile(full)
	if readErr == nil {
		w.journal = append(w.journal, mutation{kind: mutationFileModified, path: full, original: prior})
	} else {
		w.journal = append(w.journal, mutation{kind: mutationFileCreated, path: full})
	}

	if err := os.WriteFile(full, content, 0664); err != nil {
		return bootstraperr.Wrap(bootstraperr.KindWrite, err, "write %s", relPath).WithFile(relPath, 0)
	}
	return nil
}

// mkdirAllRecorded creates dir and every missing ancestor under the
// writer's root, recording a mutationDirectoryCreated entry for each
// one actually created (existing ancestors are left unrecorded, since
// rollback must not remove directories that predate the transaction).
func (w *Writer) mkdirAllRecorded(dir string) error {
	rootClean := filepath.Clean(w.root)
	if dir == rootClean || dir == "." || dir == string(filepath.Separator) {
		return nil
	}
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := w.mkdirAllRecorded(filepath.Dir(dir)); err != nil {
		return err
	}
	if err := os.Mkdir(dir, userReadWriteSearchMode); err != nil {
		if os.IsExist(err) {
			return nil
		}
		return bootstraperr.Wrap(bootstraperr.KindWrite, err, "create directory %s", dir)
	}
	w.journal = append(w.journal, mutation{kind: mutationDirectoryCreated, path: dir})
	return nil
}

// Rollback undoes every mutation recorded so far, in reverse order:
// modified files are restored to their prior bytes, created files are
// removed, and created directories are removed if now empty. Rollback
// is idempotent — replaying it twice, or over a journal already
// partially undone by a previous failed rollback attempt, is safe.
func (w *Writer) Rollback() error {
	var firstErr error
	for i := len(w.journal) - 1; i >= 0; i-- {
		m := w.journal[i]
		switch m.kind {
		case mutationFileCreated:
			if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) && firstErr == nil {
				firstErr = err
			}
		case mutationFileModified:
			if err := os.WriteFile(m.path, m.original, 0664); err != nil && firstErr == nil {
				firstErr = err
			}
		case mutationDirectoryCreated:
			// Files this writer created inside the directory were
			// journaled after it and so are already gone. Removal still
			// fails if the directory holds files the writer did not
			// create; the directory is then left in place and the error
			// is not reported.
			_ = os.Remove(m.path)
		}
	}
	w.journal = nil
	return firstErr
}

// Commit clears the journal, finalizing the transaction. After
// Commit, Rollback is a no-op.
func (w *Writer) Commit() {
	w.journal = nil
}

// Pending reports the number of mutations recorded so far, for tests
// and progress reporting.
func (w *Writer) Pending() int {
	return len(w.journal)
}
