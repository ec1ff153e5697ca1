package snapshot

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
)

// GitStore reads file snapshots out of a VCS working-copy directory
// by shelling to git, the same "capture output of a command" idiom
// the teacher uses throughout (surgeon/inner.go's captureFromProcess,
// runProcess). The handle here is just the resolved repo directory;
// git itself holds no long-lived process, so Close is a no-op kept
// to satisfy the Store interface's handle-release contract (§4.1,
// §5's "released deterministically when it is dropped").
type GitStore struct {
	dir string
}

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// NewGitStore opens dir as a git working-copy directory. It does not
// itself verify dir is a git repository; the first operation against
// it will surface a snapshot error if it is not.
func NewGitStore(dir string) (*GitStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, bootstraperr.Wrap(bootstraperr.KindSnapshot, err, "cannot resolve git source directory %q", dir)
	}
	return &GitStore{dir: abs}, nil
}

func (g *GitStore) git(args ...string) ([]byte, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return nil, &gitError{args: args, stderr: stderr.String(), cause: err}
	}
	return stdout.Bytes(), nil
}

type gitError struct {
	args   []string
	stderr string
	cause  error
}

func (e *gitError) Error() string {
	return strings.TrimSpace(e.stderr)
}

func (e *gitError) Unwrap() error { return e.cause }

// CommitExists reports whether id resolves to a commit object.
// Matching is case-insensitive hex and accepts 7+ char abbreviations,
// per §4.1.
func (g *GitStore) CommitExists(id string) (bool, error) {
	if !hexPattern.MatchString(id) {
		return false, nil
	}
	_, err := g.git("rev-parse", "--verify", "--quiet", id+"^{commit}")
	if err != nil {
		return false, nil
	}
	return true, nil
}

// FileExistsAt reports whether path exists in the tree at commit id.
func (g *GitStore) FileExistsAt(id, path string) (bool, error) {
	ok, err := g.CommitExists(id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, notFoundCommit("vcs", id)
	}
	_, err = g.git("cat-file", "-e", id+":"+path)
	return err == nil, nil
}

// ReadBytes reads path's content from the tree at commit id.
func (g *GitStore) ReadBytes(id, path string) ([]byte, error) {
	ok, err := g.CommitExists(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFoundCommit("vcs", id)
	}
	out, err := g.git("cat-file", "blob", id+":"+path)
	if err != nil {
		return nil, notFoundFile("vcs", id, path)
	}
	return out, nil
}

// ListAvailableCommits returns every commit reachable from any ref,
// for diagnostics only; large repositories may return a long list.
func (g *GitStore) ListAvailableCommits() ([]string, error) {
	out, err := g.git("log", "--all", "--format=%H")
	if err != nil {
		return nil, bootstraperr.Wrap(bootstraperr.KindSnapshot, err, "cannot list commits in %q", g.dir)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	var commits []string
	for _, l := range lines {
		if l != "" {
			commits = append(commits, l)
		}
	}
	return commits, nil
}

func (g *GitStore) Close() error { return nil }
