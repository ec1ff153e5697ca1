// Package harvest implements the Harvester (C3): pulling each
// manifest entry's file snapshot out of the Snapshot Store into
// memory, keyed by destination path.
package harvest

import (
	orderedset "github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
	"github.com/weehong/smartbootstrapper/internal/manifest"
	"github.com/weehong/smartbootstrapper/internal/progress"
	"github.com/weehong/smartbootstrapper/internal/snapshot"
)

// Artifact is the in-memory (destination path, content) pair of §3.
type Artifact struct {
	DestinationPath string
	Content         []byte
	TargetDirectory string // per-entry override, may be empty
}

// Result is the harvested set of a manifest. Order preserves the
// manifest's declared entry order, which §5 requires later phases to
// honor rather than re-sorting.
type Result struct {
	Artifacts []Artifact
	order     *orderedset.Set // destination paths in insertion order
}

// Errors collects all per-entry failures from a single harvest pass,
// so the caller sees a full failure report in one go (§4.3) rather
// than aborting on the first bad entry.
type Errors struct {
	ByDestination map[string]error
}

func (e *Errors) Error() string {
	return "one or more entries failed to harvest"
}

// Order returns the destination paths in harvested (insertion) order.
func (r *Result) Order() []string {
	values := r.order.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.(string)
	}
	return out
}

// Harvest reads every entry of m from store into memory, in
// manifest-declared order. On any per-entry read failure it records
// the error and continues, so the Orchestrator sees every failure at
// once; if any entry failed, it returns a non-nil *Errors alongside a
// partial Result.
func Harvest(store snapshot.Store, m *manifest.Manifest, sink progress.Sink) (*Result, error) {
	res := &Result{order: orderedset.New()}
	var errs *Errors

	for _, e := range m.Entries {
		content, err := store.ReadBytes(e.Commit, e.SourcePath)
		if err != nil {
			if errs == nil {
				errs = &Errors{ByDestination: map[string]error{}}
			}
			errs.ByDestination[e.DestinationPath] = err
			if sink != nil {
				sink.Emit(progress.Event{
					Stage:    progress.StageHarvest,
					Manifest: m.SequenceNumber,
					Path:     e.DestinationPath,
					Commit:   e.Commit,
					Message:  "harvest failed: " + err.Error(),
					Warning:  true,
				})
			}
			continue
		}
		res.Artifacts = append(res.Artifacts, Artifact{
			DestinationPath: e.DestinationPath,
			Content:         content,
			TargetDirectory: e.TargetDirectory,
		})
		res.order.Add(e.DestinationPath)
		if sink != nil {
			sink.Emit(progress.Event{
				Stage:    progress.StageHarvest,
				Manifest: m.SequenceNumber,
				Path:     e.DestinationPath,
				Commit:   e.Commit,
				Message:  "harvested",
			})
		}
	}

	if errs != nil {
		return res, errs
	}
	return res, nil
}

// Validate probes only CommitExists/FileExistsAt for every entry,
// without reading bytes, per §4.3's "validate mode... used by the
// Validator".
func Validate(store snapshot.Store, m *manifest.Manifest) map[string]error {
	failures := map[string]error{}
	for _, e := range m.Entries {
		ok, err := store.CommitExists(e.Commit)
		if err != nil {
			failures[e.DestinationPath] = err
			continue
		}
		if !ok {
			failures[e.DestinationPath] = bootstraperr.New(bootstraperr.KindSnapshot, "commit %q not found", e.Commit).WithCommit(e.Commit)
			continue
		}
		ok, err = store.FileExistsAt(e.Commit, e.SourcePath)
		if err != nil {
			failures[e.DestinationPath] = err
			continue
		}
		if !ok {
			failures[e.DestinationPath] = bootstraperr.New(bootstraperr.KindSnapshot, "path %q not found at commit %q", e.SourcePath, e.Commit).WithCommit(e.Commit)
		}
	}
	return failures
}
