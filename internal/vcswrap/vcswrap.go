// Package vcswrap is a thin wrapper over the git binary: the
// Orchestrator and the vcs-init command use it to initialize a
// repository, and the Commit Sequencer uses it to create the baseline
// and per-manifest commits.
package vcswrap

import (
	"bytes"
	"os/exec"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"

	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
)

// Repo is a git working copy rooted at Dir. Logger receives a debug
// line for every git invocation (QuoteForLog-rendered); nil falls
// back to logrus's standard logger, matching the rest of the module's
// "one logger, set once" convention (internal/logx).
type Repo struct {
	Dir    string
	Logger *logrus.Logger
}

// Open wraps an existing directory as a git working copy root; it
// does not itself run `git init`.
func Open(dir string) *Repo {
	return &Repo{Dir: dir}
}

func (r *Repo) logger() *logrus.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logrus.StandardLogger()
}

func (r *Repo) run(args ...string) error {
	r.logger().Debugf("running %s", QuoteForLog(append([]string{"git"}, args...)...))

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return bootstraperr.Wrap(bootstraperr.KindCommitSequencer, err, "git %v: %s", args, stderr.String())
	}
	return nil
}

// Init runs `git init --quiet` in the working copy, matching the
// teacher's git capability table entry for "initializer".
func (r *Repo) Init() error {
	return r.run("init", "--quiet")
}

// StageAll runs `git add -A`, staging every change in the working copy.
func (r *Repo) StageAll() error {
	return r.run("add", "-A")
}

// Commit runs `git commit -q -a -m <message>` (the -a picks up changes
// to already-tracked files; new files need StageAll first) with the
// commit message passed safely rather than, as the teacher's
// capability table does, via naive printf substitution into a shell
// template (`committer: "git commit -q -a -m '%s'"`, which breaks the
// moment a commit message contains a single quote). The actual
// exec.Command call passes message as a distinct argv entry, so no
// shell is involved and no quoting bug can recur; run()'s debug log
// of the command (via QuoteForLog) is for human eyes only.
func (r *Repo) Commit(message string) error {
	if message == "" {
		return bootstraperr.New(bootstraperr.KindCommitSequencer, "empty commit message")
	}
	return r.run("commit", "-q", "-a", "-m", message)
}

// QuoteForLog renders args as a single shell-quoted string, used only
// for human-readable progress/log output.
func QuoteForLog(args ...string) string {
	return shellquote.Join(args...)
}
