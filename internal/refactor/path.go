package refactor

import "strings"

// javaSourceRoots are the conventional Maven/Gradle source roots under
// which a package's dotted name maps to a slash-separated directory
// path.
var javaSourceRoots = []string{"src/main/java/", "src/test/java/"}

// TransformPath rewrites a destination path whose directory structure
// encodes oldPkg as a Java source root, to the same structure under
// newPkg, per §4.4's path transformation rule. Paths that do not
// contain old_pkg_path as the expected prefix are returned unchanged.
//
// The transform is its own inverse under role-swapped arguments:
// TransformPath(TransformPath(p, old, new), new, old) == p for every
// path the forward call changes.
func TransformPath(path, oldPkg, newPkg string) string {
	oldPath := strings.ReplaceAll(oldPkg, ".", "/")
	newPath := strings.ReplaceAll(newPkg, ".", "/")

	for _, root := range javaSourceRoots {
		prefix := root + oldPath
		if rest, ok := stripPrefix(path, prefix); ok {
			return root + newPath + rest
		}
	}
	if rest, ok := stripPrefix(path, oldPath); ok {
		return newPath + rest
	}
	return path
}

// stripPrefix reports whether path equals prefix or has prefix
// followed by '/', returning whatever remains after prefix.
func stripPrefix(path, prefix string) (string, bool) {
	if path == prefix {
		return "", true
	}
	if strings.HasPrefix(path, prefix+"/") {
		return path[len(prefix):], true
	}
	return "", false
}
