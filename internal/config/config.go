// Package config holds the frozen project configuration the core
// consumes. Gathering it from prompts or flags is explicitly out of
// scope (spec.md §1); the core only ever sees an already-validated
// Project value.
package config

import (
	orderedset "github.com/emirpasic/gods/sets/linkedhashset"
)

// Project is the frozen input record of spec.md §3. Every field has
// already been validated by the caller; the core performs no format
// validation of its own beyond what its own invariants require.
type Project struct {
	GroupID          string
	ArtifactID       string
	ProjectName      string
	Version          string
	FrameworkVersion string
	RuntimeVersion   string
	Capabilities     *orderedset.Set // capability tags, insertion-ordered

	// OldPackage is the source identifier to refactor from. It may be
	// empty, in which case the orchestrator infers it per §4.2 from
	// the manifest set's source paths.
	OldPackage string
	// NewPackage is the destination identifier to refactor to.
	NewPackage string

	// TargetDir is the destination directory for the materialized
	// project; must be empty or not yet exist before a bootstrap run.
	TargetDir string
}

// NewCapabilities builds an ordered, de-duplicated capability-tag set
// from a slice of tag strings, preserving first-seen order the way
// the teacher's orderedStringSet does (surgeon/selection.go).
func NewCapabilities(tags ...string) *orderedset.Set {
	s := orderedset.New()
	for _, t := range tags {
		s.Add(t)
	}
	return s
}

// HasCapability reports whether tag is present.
func (p *Project) HasCapability(tag string) bool {
	if p.Capabilities == nil {
		return false
	}
	return p.Capabilities.Contains(tag)
}

// CapabilityList returns the capability tags in insertion order.
func (p *Project) CapabilityList() []string {
	if p.Capabilities == nil {
		return nil
	}
	values := p.Capabilities.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.(string)
	}
	return out
}

// HasOldPackage reports whether OldPackage was supplied explicitly,
// as opposed to needing inference (§4.2).
func (p *Project) HasOldPackage() bool {
	return p.OldPackage != ""
}
