// Package validate implements the Validator (C8): a read-only
// traversal of the same pipeline the Orchestrator drives, checking
// every precondition a bootstrap run would need without writing
// anything to disk (§4.8).
package validate

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
	"github.com/weehong/smartbootstrapper/internal/harvest"
	"github.com/weehong/smartbootstrapper/internal/manifest"
	"github.com/weehong/smartbootstrapper/internal/refactor"
	"github.com/weehong/smartbootstrapper/internal/snapshot"
)

// Check is one named precondition, pass or fail, per §3's Validation
// result record.
type Check struct {
	Name   string
	Passed bool
	Detail string
}

// Error is one validation failure: a message plus whatever context
// (file, line, commit, suggestion) was available.
type Error struct {
	Message    string
	File       string
	Line       int
	Commit     string
	Suggestion string
}

// Result aggregates every check performed and every error found,
// across the whole manifest set.
type Result struct {
	Checks []Check
	Errors []Error
}

// OK reports whether every check passed and no errors were recorded.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

func (r *Result) addCheck(name string, passed bool, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Passed: passed, Detail: detail})
}

func (r *Result) addError(err error) {
	r.Errors = append(r.Errors, toValidationError(err))
}

func toValidationError(err error) Error {
	var berr *bootstraperr.Error
	if errors.As(err, &berr) {
		suggestion := berr.Suggestion
		if suggestion == "" {
			suggestion = bootstraperr.Suggest(berr.Kind)
		}
		return Error{
			Message:    berr.Error(),
			File:       berr.File,
			Line:       berr.Line,
			Commit:     berr.Commit,
			Suggestion: suggestion,
		}
	}
	return Error{Message: err.Error()}
}

// OpenStore resolves the Snapshot Store for a manifest, narrowed to a
// function value so tests can substitute a fake without touching disk
// or a real git repository.
type OpenStore func(*manifest.Manifest) (snapshot.Store, error)

// Run walks the manifest set anchored at manifestAnchor the way the
// Orchestrator would, but never writes to disk: it checks manifest
// structure (via manifest.ParseSet, which already enforces required
// fields, duplicate destinations, and path-traversal forms), probes
// the Snapshot Store for every entry's commit and file existence, and
// attempts to parse every harvested .java artifact, collecting parse
// diagnostics by calling refactor.RewriteJava with an empty package
// pair, which parses the file but rewrites nothing.
func Run(manifestAnchor string, openStore OpenStore) *Result {
	result := &Result{}

	manifests, err := manifest.ParseSet(manifestAnchor)
	if err != nil {
		result.addCheck("manifest set parses", false, err.Error())
		result.addError(err)
		return result
	}
	result.addCheck("manifest set parses", true, fmt.Sprintf("%d manifest(s) discovered", len(manifests)))

	for _, m := range manifests {
		validateManifest(result, m, openStore)
	}
	return result
}

func validateManifest(result *Result, m *manifest.Manifest, openStore OpenStore) {
	label := fmt.Sprintf("manifest %d (%s)", m.SequenceNumber, m.Path)

	store, err := openStore(m)
	if err != nil {
		result.addCheck(label+": open snapshot store", false, err.Error())
		result.addError(err)
		return
	}
	defer store.Close()

	failures := harvest.Validate(store, m)
	if len(failures) == 0 {
		result.addCheck(label+": commits and files exist", true, "")
	} else {
		dests := make([]string, 0, len(failures))
		for d := range failures {
			dests = append(dests, d)
		}
		sort.Strings(dests)
		for _, d := range dests {
			result.addCheck(label+": "+d, false, failures[d].Error())
			result.addError(failures[d])
		}
		// A manifest with missing snapshots cannot usefully be
		// harvested; don't pile on parse-diagnostic noise for entries
		// that will never have bytes.
		return
	}

	harvested, herr := harvest.Harvest(store, m, nil)
	if herr != nil {
		errs, ok := herr.(*harvest.Errors)
		if ok {
			dests := make([]string, 0, len(errs.ByDestination))
			for d := range errs.ByDestination {
				dests = append(dests, d)
			}
			sort.Strings(dests)
			for _, d := range dests {
				result.addCheck(label+": harvest "+d, false, errs.ByDestination[d].Error())
				result.addError(errs.ByDestination[d])
			}
		} else {
			result.addCheck(label+": harvest", false, herr.Error())
			result.addError(herr)
		}
	}

	for _, a := range harvested.Artifacts {
		if filepath.Ext(a.DestinationPath) != ".java" {
			continue
		}
		// A no-op rewrite (old == new == "") still drives the parser
		// and surfaces the same refactor-parse diagnostics a real
		// bootstrap run would hit, without needing a configured
		// package pair.
		if _, err := refactor.RewriteJava(a.DestinationPath, a.Content, "", ""); err != nil {
			result.addCheck(label+": parse "+a.DestinationPath, false, err.Error())
			result.addError(err)
		} else {
			result.addCheck(label+": parse "+a.DestinationPath, true, "")
		}
	}
}
