// Package commitseq implements the Commit Sequencer (C6): creating
// the baseline commit after skeleton extraction, then one commit per
// processed manifest, with its message looked up from the ledger by
// sequence number.
package commitseq

import (
	"github.com/weehong/smartbootstrapper/internal/ledger"
	"github.com/weehong/smartbootstrapper/internal/progress"
)

// BaselineMessage is the fixed commit message used for the very first
// commit, made right after the fetched skeleton is extracted and
// initialized as a git working copy, before any manifest is replayed.
const BaselineMessage = "chore(init): scaffold project from Spring Initializr"

// repo is the subset of *vcswrap.Repo the sequencer needs, kept as an
// interface so tests can exercise skip-with-warning logic without
// shelling out to git.
type repo interface {
	StageAll() error
	Commit(message string) error
}

// Sequencer drives the git working copy through the baseline commit
// and the per-manifest replay commits.
type Sequencer struct {
	repo   repo
	ledger *ledger.Ledger
	sink   progress.Sink
}

// New returns a Sequencer operating on r, looking up replay commit
// messages in led (which may be empty, per §4.6).
func New(r repo, led *ledger.Ledger, sink progress.Sink) *Sequencer {
	return &Sequencer{repo: r, ledger: led, sink: sink}
}

// Baseline stages and commits the extracted skeleton with the fixed
// baseline message.
func (s *Sequencer) Baseline() error {
	if err := s.repo.StageAll(); err != nil {
		return err
	}
	if err := s.repo.Commit(BaselineMessage); err != nil {
		return err
	}
	if s.sink != nil {
		s.sink.Emit(progress.Event{Stage: progress.StageCommit, Message: "baseline commit created"})
	}
	return nil
}

// CommitManifest stages the working copy and commits it for
// sequenceNumber, using the ledger's message for that sequence number
// if present. If the ledger is empty or has no entry for this
// sequence number, the commit phase is skipped with a warning rather
// than failing the run (§4.6).
func (s *Sequencer) CommitManifest(sequenceNumber int) error {
	if s.ledger == nil || s.ledger.Empty() {
		s.warn(sequenceNumber, "no commit ledger available, skipping commit")
		return nil
	}
	message, ok := s.ledger.MessageFor(sequenceNumber)
	if !ok {
		s.warn(sequenceNumber, "no ledger entry for this manifest, skipping commit")
		return nil
	}

	if err := s.repo.StageAll(); err != nil {
		return err
	}
	if err := s.repo.Commit(message); err != nil {
		return err
	}
	if s.sink != nil {
		s.sink.Emit(progress.Event{Stage: progress.StageCommit, Manifest: sequenceNumber, Message: "commit created"})
	}
	return nil
}

func (s *Sequencer) warn(sequenceNumber int, message string) {
	if s.sink != nil {
		s.sink.Emit(progress.Event{Stage: progress.StageCommit, Manifest: sequenceNumber, Message: message, Warning: true})
	}
}
