// Package manifest implements the Manifest Model & Parser (C2):
// discovery of a numbered manifest set, per-file YAML parsing with
// line-numbered errors, and base-package inference.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
)

// SourceType tags which Snapshot Store backend a Manifest reads from.
type SourceType string

const (
	SourceTypeVCS  SourceType = "vcs"
	SourceTypeZip  SourceType = "zip-archives"
)

// Entry is one manifest entry (§3).
type Entry struct {
	Commit          string `yaml:"commit"`
	SourcePath      string `yaml:"sourcePath"`
	DestinationPath string `yaml:"destinationPath"`
	TargetDirectory string `yaml:"targetDirectory,omitempty"`
}

// Manifest is one parsed manifest file (§3).
type Manifest struct {
	SourceRepository string
	SourceType       SourceType
	SequenceNumber   int // resolved: YAML field, else filename-derived
	Entries          []Entry

	Path string // the file this manifest was parsed from
}

// rawManifest mirrors the YAML shape before sequence-number
// resolution, so yaml.v3 can hand back node positions on error.
type rawManifest struct {
	SourceRepository string  `yaml:"sourceRepository"`
	SourceType       string  `yaml:"sourceType"`
	SequenceNumber   *int    `yaml:"sequenceNumber"`
	Files            []Entry `yaml:"files"`
}

var filenamePattern = regexp.MustCompile(`^commit-(\d+)\.ya?ml$`)
var commitPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// Discover finds the manifest set anchored at anchor: if anchor is a
// directory, every file in it matching commit-<N>.y(a)ml is a
// candidate; if anchor is a file, its directory is scanned the same
// way. Files that don't match the pattern are ignored. If none match
// and the anchor is a file (e.g. one with an unrelated name), the
// anchor file alone is parsed; if none match and the anchor is a
// directory, Discover returns an error.
func Discover(anchor string) ([]string, error) {
	info, err := os.Stat(anchor)
	if err != nil {
		return nil, bootstraperr.Wrap(bootstraperr.KindManifest, err, "cannot stat manifest anchor %q", anchor)
	}

	dir := anchor
	if !info.IsDir() {
		dir = filepath.Dir(anchor)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, bootstraperr.Wrap(bootstraperr.KindManifest, err, "cannot list manifest directory %q", dir)
	}

	type candidate struct {
		path string
		n    int
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := filenamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		candidates = append(candidates, candidate{path: filepath.Join(dir, e.Name()), n: n})
	}

	if len(candidates) == 0 {
		if info.IsDir() {
			return nil, bootstraperr.New(bootstraperr.KindManifest, "no commit-<N>.yaml manifests found in %q", dir)
		}
		return []string{anchor}, nil
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].n < candidates[j].n })
	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.path
	}
	return paths, nil
}

// Parse parses a single manifest file, resolving its sequence number
// from the filename unless the YAML's sequenceNumber field overrides
// it, and validating required fields and per-entry invariants.
func Parse(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, bootstraperr.Wrap(bootstraperr.KindManifest, err, "cannot read manifest %q", path)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, wrapYAMLError(path, err)
	}

	var raw rawManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, wrapYAMLError(path, err)
	}

	if raw.SourceRepository == "" {
		return nil, bootstraperr.New(bootstraperr.KindManifest, "manifest %q missing required field sourceRepository", path).WithFile(path, fieldLine(&node, "sourceRepository"))
	}
	if len(raw.Files) == 0 {
		return nil, bootstraperr.New(bootstraperr.KindManifest, "manifest %q has zero entries", path).WithFile(path, 0)
	}

	sourceType := SourceTypeZip
	switch strings.ToLower(raw.SourceType) {
	case "", "zip", "zip-archives":
		sourceType = SourceTypeZip
	case "git", "vcs":
		sourceType = SourceTypeVCS
	default:
		return nil, bootstraperr.New(bootstraperr.KindManifest, "manifest %q has unrecognized sourceType %q", path, raw.SourceType).WithFile(path, fieldLine(&node, "sourceType"))
	}

	seq := sequenceFromFilename(path)
	if raw.SequenceNumber != nil {
		seq = *raw.SequenceNumber
	}

	seen := map[string]bool{}
	for i, e := range raw.Files {
		line := entryFieldLine(&node, i, "commit")
		if e.Commit == "" || !commitPattern.MatchString(e.Commit) {
			return nil, bootstraperr.New(bootstraperr.KindManifest, "manifest %q entry %d has invalid commit %q (must be 7-40 hex chars)", path, i, e.Commit).WithFile(path, line)
		}
		if err := validateRelativePath(e.SourcePath); err != nil {
			return nil, bootstraperr.New(bootstraperr.KindManifest, "manifest %q entry %d sourcePath: %s", path, i, err).WithFile(path, entryFieldLine(&node, i, "sourcePath"))
		}
		if err := validateRelativePath(e.DestinationPath); err != nil {
			return nil, bootstraperr.New(bootstraperr.KindManifest, "manifest %q entry %d destinationPath: %s", path, i, err).WithFile(path, entryFieldLine(&node, i, "destinationPath"))
		}
		if seen[e.DestinationPath] {
			return nil, bootstraperr.New(bootstraperr.KindManifest, "manifest %q has duplicate destinationPath %q", path, e.DestinationPath).WithFile(path, entryFieldLine(&node, i, "destinationPath"))
		}
		seen[e.DestinationPath] = true
	}

	return &Manifest{
		SourceRepository: raw.SourceRepository,
		SourceType:       sourceType,
		SequenceNumber:   seq,
		Entries:          raw.Files,
		Path:             path,
	}, nil
}

// ParseSet parses every manifest discovered by Discover, validates
// that sequence numbers are unique across the set, and returns them
// sorted ascending by sequence number.
func ParseSet(anchor string) ([]*Manifest, error) {
	paths, err := Discover(anchor)
	if err != nil {
		return nil, err
	}
	manifests := make([]*Manifest, 0, len(paths))
	seen := map[int]string{}
	for _, p := range paths {
		m, err := Parse(p)
		if err != nil {
			return nil, err
		}
		if prior, ok := seen[m.SequenceNumber]; ok {
			return nil, bootstraperr.New(bootstraperr.KindManifest, "sequence number %d used by both %q and %q", m.SequenceNumber, prior, p).WithFile(p, 0)
		}
		seen[m.SequenceNumber] = p
		manifests = append(manifests, m)
	}
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].SequenceNumber < manifests[j].SequenceNumber
	})
	return manifests, nil
}

func sequenceFromFilename(path string) int {
	m := filenamePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	var n int
	fmt.Sscanf(m[1], "%d", &n)
	return n
}

func validateRelativePath(p string) error {
	if p == "" {
		return fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) {
		return fmt.Errorf("absolute path %q not allowed", p)
	}
	cleaned := filepath.ToSlash(filepath.Clean(p))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/../") {
		return fmt.Errorf("path %q escapes its root via ..", p)
	}
	return nil
}

func wrapYAMLError(path string, err error) error {
	line := 0
	msg := err.Error()
	// yaml.v3 syntax errors are formatted "yaml: line N: ...";
	// surface that line number per §4.2's "YAML errors surface with
	// line numbers" requirement.
	if idx := strings.Index(msg, "line "); idx >= 0 {
		fmt.Sscanf(msg[idx:], "line %d", &line)
	}
	return bootstraperr.New(bootstraperr.KindManifest, "manifest %q: %s", path, msg).WithFile(path, line)
}

func fieldLine(doc *yaml.Node, key string) int {
	if len(doc.Content) == 0 {
		return 0
	}
	mapping := doc.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i].Line
		}
	}
	return 0
}

func entryFieldLine(doc *yaml.Node, entryIdx int, key string) int {
	if len(doc.Content) == 0 {
		return 0
	}
	mapping := doc.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value != "files" {
			continue
		}
		seq := mapping.Content[i+1]
		if entryIdx >= len(seq.Content) {
			return 0
		}
		entry := seq.Content[entryIdx]
		for j := 0; j+1 < len(entry.Content); j += 2 {
			if entry.Content[j].Value == key {
				return entry.Content[j].Line
			}
		}
		return entry.Line
	}
	return 0
}
