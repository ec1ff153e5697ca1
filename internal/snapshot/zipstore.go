package snapshot

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
)

// ZipStore indexes a directory of ZIP archives named
// "<project>-<hex>.zip" by their trailing commit identifier, per
// §4.1 and §6's "ZIP-archive naming" convention. Each archive is
// opened lazily and its *zip.ReadCloser kept open for the lifetime of
// the store, matching §5's "backends hold their handle open across
// many reads and release it on drop".
type ZipStore struct {
	dir      string
	byID     map[string]string   // lowercased full/short hex -> archive path
	fullByPath map[string]string // archive path -> its canonical full hex id
	opened   map[string]*zip.ReadCloser
}

var archiveNamePattern = regexp.MustCompile(`-([0-9a-fA-F]{7,40})\.zip$`)

// NewZipStore scans dir for archives matching the naming convention
// and indexes them by both full hex and first-7-char prefix,
// case-folded (§4.1).
func NewZipStore(dir string) (*ZipStore, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, bootstraperr.Wrap(bootstraperr.KindSnapshot, err, "cannot list zip-archive directory %q", dir)
	}

	s := &ZipStore{
		dir:        dir,
		byID:       map[string]string{},
		fullByPath: map[string]string{},
		opened:     map[string]*zip.ReadCloser{},
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := archiveNamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		full := strings.ToLower(m[1])
		path := filepath.Join(dir, e.Name())
		s.byID[full] = path
		s.fullByPath[path] = full
		if len(full) > 7 {
			short := full[:7]
			if _, exists := s.byID[short]; !exists {
				s.byID[short] = path
			}
		}
	}
	return s, nil
}

func (s *ZipStore) resolve(id string) (string, bool) {
	id = strings.ToLower(id)
	if len(id) < 7 {
		return "", false
	}
	if p, ok := s.byID[id]; ok {
		return p, true
	}
	if len(id) > 7 {
		if p, ok := s.byID[id[:7]]; ok && strings.HasPrefix(s.fullByPath[p], id) {
			return p, true
		}
	}
	// Accept any registered archive whose full id starts with the
	// given (possibly longer-than-7 but still abbreviated) prefix.
	for full, p := range s.byID {
		if len(full) == 40 || len(full) > 7 {
			if strings.HasPrefix(full, id) {
				return p, true
			}
		}
	}
	return "", false
}

func (s *ZipStore) archive(path string) (*zip.ReadCloser, error) {
	if r, ok := s.opened[path]; ok {
		return r, nil
	}
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, bootstraperr.Wrap(bootstraperr.KindSnapshot, err, "cannot open archive %q", path)
	}
	s.opened[path] = r
	return r, nil
}

func (s *ZipStore) CommitExists(id string) (bool, error) {
	_, ok := s.resolve(id)
	return ok, nil
}

// findEntry tolerates archives that wrap their contents in a single
// top-level directory, as produced by common VCS-hosting "download"
// buttons (§4.1): it first tries an exact entry-path match, then
// searches for any entry whose name ends with "/<path>".
func findEntry(r *zip.ReadCloser, path string) *zip.File {
	clean := strings.TrimPrefix(path, "/")
	for _, f := range r.File {
		if f.Name == clean {
			return f
		}
	}
	suffix := "/" + clean
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, suffix) {
			return f
		}
	}
	return nil
}

func (s *ZipStore) FileExistsAt(id, path string) (bool, error) {
	archivePath, ok := s.resolve(id)
	if !ok {
		return false, notFoundCommit("zip-archives", id)
	}
	r, err := s.archive(archivePath)
	if err != nil {
		return false, err
	}
	return findEntry(r, path) != nil, nil
}

func (s *ZipStore) ReadBytes(id, path string) ([]byte, error) {
	archivePath, ok := s.resolve(id)
	if !ok {
		return nil, notFoundCommit("zip-archives", id)
	}
	r, err := s.archive(archivePath)
	if err != nil {
		return nil, err
	}
	f := findEntry(r, path)
	if f == nil {
		return nil, notFoundFile("zip-archives", id, path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, bootstraperr.Wrap(bootstraperr.KindSnapshot, err, "cannot open entry %q in %q", path, archivePath)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, bootstraperr.Wrap(bootstraperr.KindSnapshot, err, "cannot read entry %q in %q", path, archivePath)
	}
	return data, nil
}

func (s *ZipStore) ListAvailableCommits() ([]string, error) {
	out := make([]string, 0, len(s.fullByPath))
	for _, full := range s.fullByPath {
		out = append(out, full)
	}
	return out, nil
}

func (s *ZipStore) Close() error {
	var firstErr error
	for _, r := range s.opened {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
