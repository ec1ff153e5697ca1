// Package ledger parses the commit-message ledger (§3, §6): a text
// document mapping sequence numbers to commit-message bodies.
package ledger

import (
	"bufio"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Ledger maps a manifest's sequence number to the commit message the
// Commit Sequencer should use for its replay commit.
type Ledger struct {
	messages map[int]string
}

var headerPattern = regexp.MustCompile(`^(\d+)\.\s+([a-f0-9]{7,40})\s*$`)

const separator = "---"

// Load reads and parses the ledger at path. A missing file is not an
// error: it is treated as an empty ledger (§4.6: "If... the ledger is
// absent, the commit phase is skipped with a warning").
func Load(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Ledger{messages: map[int]string{}}, nil
		}
		return nil, err
	}
	defer f.Close()

	return parse(f)
}

func parse(f *os.File) (*Ledger, error) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	l := &Ledger{messages: map[int]string{}}

	var currentSeq = -1
	var bodyLines []string
	flush := func() {
		if currentSeq < 0 {
			bodyLines = nil
			return
		}
		body := strings.TrimSpace(strings.Join(bodyLines, "\n"))
		if body != "" {
			l.messages[currentSeq] = body
		}
		currentSeq = -1
		bodyLines = nil
	}

	inHeaderGap := true // waiting for a header line at entry start
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == separator {
			flush()
			inHeaderGap = true
			continue
		}
		if inHeaderGap {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if m := headerPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				n, err := strconv.Atoi(m[1])
				if err == nil {
					currentSeq = n
				}
				inHeaderGap = false
				continue
			}
			// Unparseable entry: skip until the next separator.
			// Non-fatal per §3: "Missing or unparseable entries...
			// are non-fatal".
			currentSeq = -1
			inHeaderGap = false
			continue
		}
		bodyLines = append(bodyLines, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return l, nil
}

// MessageFor returns the commit message body for sequence number n,
// and whether one was found.
func (l *Ledger) MessageFor(n int) (string, bool) {
	if l == nil {
		return "", false
	}
	msg, ok := l.messages[n]
	return msg, ok
}

// Empty reports whether the ledger has no usable entries.
func (l *Ledger) Empty() bool {
	return l == nil || len(l.messages) == 0
}
