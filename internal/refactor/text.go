package refactor

import "strings"

// isWordByte reports whether b is a "word" character per §4.4's
// guard: [A-Za-z0-9_]. Period is deliberately excluded — it is
// handled as its own allowed boundary, not folded into "word".
func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

// boundedSubstitute replaces every occurrence of old in text with new,
// but only when the byte immediately following the match is one of:
// end-of-input, '.', or any non-word byte other than '.' (§4.4's
// formal post-match guard — this is what keeps "com.oldcompany" from
// being corrupted when old is "com.old": the byte after the match
// ('c') is a word byte, so the guard rejects it).
//
// Scanning is a single left-to-right pass over the original text;
// once an occurrence is accepted the search resumes immediately
// after it, so a replacement's own text is never rescanned.
func boundedSubstitute(text, old, newStr string) string {
	if old == "" {
		return text
	}
	var b strings.Builder
	cursor := 0
	for {
		idx := strings.Index(text[cursor:], old)
		if idx < 0 {
			b.WriteString(text[cursor:])
			break
		}
		start := cursor + idx
		end := start + len(old)
		guardOK := end >= len(text) || text[end] == '.' || !isWordByte(text[end])
		if guardOK {
			b.WriteString(text[cursor:start])
			b.WriteString(newStr)
			cursor = end
		} else {
			// Not a boundary match: keep the byte at start and
			// resume scanning just past it, so overlapping
			// candidates starting one byte later are still found.
			b.WriteString(text[cursor : start+1])
			cursor = start + 1
		}
	}
	return b.String()
}

// RewriteText applies bounded substitution for old -> new, then again
// for the '/'-separated package-path form of both, per §4.4: "The
// same bounded replacement is applied a second time using the
// '/'-separated form of the package... to catch classpath and
// resource references."
func RewriteText(content []byte, oldPkg, newPkg string) []byte {
	s := string(content)
	s = boundedSubstitute(s, oldPkg, newPkg)
	oldPath := strings.ReplaceAll(oldPkg, ".", "/")
	newPath := strings.ReplaceAll(newPkg, ".", "/")
	s = boundedSubstitute(s, oldPath, newPath)
	return []byte(s)
}

// textLikeExtensions are the resource formats §4.4 names as subject
// to bounded textual substitution, beyond the explicit list, a
// reasonable superset of plain-text build/config formats a harvested
// project commonly carries.
var textLikeExtensions = map[string]bool{
	".properties": true,
	".yml":        true,
	".yaml":       true,
	".xml":        true,
	".json":       true,
	".md":         true,
	".txt":        true,
	".gradle":     true,
	".sql":        true,
	".conf":       true,
	".cfg":        true,
	".ini":        true,
	".sh":         true,
}

// IsTextLike reports whether ext (including the leading dot) is one
// of the resource formats rewritten via bounded substitution.
func IsTextLike(ext string) bool {
	return textLikeExtensions[ext]
}
