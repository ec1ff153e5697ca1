package manifest

import "strings"

// javaRoots are the two conventional Maven/Gradle source roots the
// spec scans beneath (§4.2).
var javaRoots = []string{"src/main/java/", "src/test/java/"}

// InferBasePackage scans entries whose path ends in .java and sits
// beneath one of the conventional source roots, extracting each
// file's enclosing package and returning the longest common
// dot-separated prefix across all of them. Returns "" if no .java
// entries qualify or the common prefix is empty.
//
// pathOf selects which path to inspect on each Entry — SourcePath for
// content-rewrite inference, DestinationPath for path-rewrite
// inference (§4.2 explicitly keeps these separate).
func InferBasePackage(entries []Entry, pathOf func(Entry) string) string {
	var packages []string
	for _, e := range entries {
		p := pathOf(e)
		if !strings.HasSuffix(p, ".java") {
			continue
		}
		pkg, ok := packageOf(p)
		if ok {
			packages = append(packages, pkg)
		}
	}
	if len(packages) == 0 {
		return ""
	}
	return longestCommonDottedPrefix(packages)
}

// packageOf strips a conventional Java source root and the trailing
// filename from path, converting the remaining directory segments
// into a dotted package name.
func packageOf(path string) (string, bool) {
	for _, root := range javaRoots {
		idx := strings.Index(path, root)
		if idx < 0 {
			continue
		}
		rest := path[idx+len(root):]
		slash := strings.LastIndexByte(rest, '/')
		if slash < 0 {
			// File directly under the root: default package.
			return "", true
		}
		dir := rest[:slash]
		return strings.ReplaceAll(dir, "/", "."), true
	}
	return "", false
}

// longestCommonDottedPrefix returns the longest prefix of
// dot-separated segments common to every package in pkgs, joined back
// with dots. A package with no segments in common with the others
// yields "".
func longestCommonDottedPrefix(pkgs []string) string {
	if len(pkgs) == 0 {
		return ""
	}
	common := strings.Split(pkgs[0], ".")
	for _, p := range pkgs[1:] {
		segs := strings.Split(p, ".")
		common = commonPrefix(common, segs)
		if len(common) == 0 {
			return ""
		}
	}
	return strings.Join(common, ".")
}

func commonPrefix(a, b []string) []string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// DetectSourceBasePackage infers the base package from each entry's
// SourcePath — used for content rewriting.
func DetectSourceBasePackage(m *Manifest) string {
	return InferBasePackage(m.Entries, func(e Entry) string { return e.SourcePath })
}

// DetectDestinationBasePackage infers the base package from each
// entry's DestinationPath — used for path rewriting (§4.7 step 2b).
func DetectDestinationBasePackage(m *Manifest) string {
	return InferBasePackage(m.Entries, func(e Entry) string { return e.DestinationPath })
}
