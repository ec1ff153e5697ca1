// Package progress carries structured progress events out of the
// orchestrator to whatever is rendering them (a CLI, a test harness).
//
// The teacher routes all of its user-facing chatter through a single
// control.baton value implementing io.Writer (surgeon/reposurgeon.go's
// Control.init, batonLogFunc). §9 asks that this be modeled here as a
// plain sink interface rather than a channel/goroutine pair, since
// the core never runs concurrently with itself (§5).
package progress

import "github.com/sirupsen/logrus"

// Stage names a phase of the orchestrator, per §4.7's fixed ordering.
type Stage string

const (
	StageSkeleton  Stage = "skeleton"
	StageHarvest   Stage = "harvest"
	StageRefactor  Stage = "refactor"
	StageWrite     Stage = "write"
	StageCommit    Stage = "commit"
	StageRollback  Stage = "rollback"
	StageValidate  Stage = "validate"
)

// Event is one unit of progress. Stage is always set; the other
// fields are filled in as far as they apply to the event, and a zero
// value means "not applicable".
type Event struct {
	Stage      Stage
	Manifest   int    // sequence number, 0 if none
	Path       string // destination or source path, when relevant
	Commit     string // commit identifier, when relevant
	Message    string // human-readable detail
	Warning    bool   // true for non-fatal warnings (e.g. ledger gap)
}

// Sink receives progress events. Implementations must not block the
// caller for long: the orchestrator emits these synchronously inline
// with its single-threaded pipeline.
type Sink interface {
	Emit(Event)
}

// LogrusSink adapts a *logrus.Logger into a Sink, the default used by
// the CLI for a bootstrap run. The Validator (dry-run mode) emits no
// events through it.
type LogrusSink struct {
	Log *logrus.Logger
}

// NewLogrusSink wraps log as a Sink.
func NewLogrusSink(log *logrus.Logger) *LogrusSink {
	return &LogrusSink{Log: log}
}

func (s *LogrusSink) Emit(ev Event) {
	fields := logrus.Fields{"stage": ev.Stage}
	if ev.Manifest != 0 {
		fields["manifest"] = ev.Manifest
	}
	if ev.Path != "" {
		fields["path"] = ev.Path
	}
	if ev.Commit != "" {
		fields["commit"] = ev.Commit
	}
	entry := s.Log.WithFields(fields)
	if ev.Warning {
		entry.Warn(ev.Message)
	} else {
		entry.Info(ev.Message)
	}
}

// Discard is a Sink that drops every event, for tests that only care
// about return values.
type Discard struct{}

func (Discard) Emit(Event) {}

// Collector is a Sink that records every event in order, for tests
// that assert on the emitted sequence.
type Collector struct {
	Events []Event
}

func (c *Collector) Emit(ev Event) {
	c.Events = append(c.Events, ev)
}
