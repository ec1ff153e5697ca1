package refactor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
)

// qualifiedNodeTypes are the tree-sitter-java node kinds that carry a
// dotted name: package declarations, import declarations, and every
// other fully-qualified reference (static member access, qualified
// type names) all parse down to one of these two node kinds.
var qualifiedNodeTypes = map[string]bool{
	"scoped_identifier":      true,
	"scoped_type_identifier": true,
}

// RewriteJava parses content as a Java compilation unit and rewrites
// every package declaration, import, and fully-qualified name
// occurrence that equals oldPkg or has oldPkg+"." as a prefix,
// substituting newPkg for that prefix. Everything else in the file —
// comments, string literals, unrelated identifiers — is left
// byte-for-byte untouched, since rewriting operates on exact AST node
// spans rather than a blind text pass.
//
// If the parser cannot produce a usable tree, RewriteJava returns a
// *bootstraperr.Error of KindRefactor carrying file and the first
// diagnostic's line, per the refactor-parse failure mode.
func RewriteJava(file string, content []byte, oldPkg, newPkg string) ([]byte, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, bootstraperr.Wrap(bootstraperr.KindRefactor, err, "refactor-parse: %s", file).WithFile(file, 1)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		return nil, bootstraperr.New(bootstraperr.KindRefactor, "refactor-parse: %s: syntax error", file).WithFile(file, line)
	}

	type span struct {
		start, end uint32
		text       string
	}
	var spans []span

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if qualifiedNodeTypes[n.Type()] || isUnqualifiedDeclarationName(n) {
			text := n.Content(content)
			if rewritten, changed := rewriteQualifiedName(text, oldPkg, newPkg); changed {
				spans = append(spans, span{start: n.StartByte(), end: n.EndByte(), text: rewritten})
				return // don't descend into a node we just replaced wholesale
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)

	if len(spans) == 0 {
		return content, nil
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var out strings.Builder
	cursor := uint32(0)
	for _, s := range spans {
		out.Write(content[cursor:s.start])
		out.WriteString(s.text)
		cursor = s.end
	}
	out.Write(content[cursor:])
	return []byte(out.String()), nil
}

// isUnqualifiedDeclarationName reports whether n is a bare `identifier`
// standing directly for a package or import name. A single-segment
// package (`package app;`) or import parses its name as a plain
// `identifier` rather than `scoped_identifier` — DetectPackage already
// has to account for this same grammar quirk below. Without this
// check a single-segment oldPkg/newPkg would never match here, while
// TransformPath still relocates the file, leaving its declared package
// out of sync with its new directory.
func isUnqualifiedDeclarationName(n *sitter.Node) bool {
	if n.Type() != "identifier" {
		return false
	}
	parent := n.Parent()
	return parent != nil && (parent.Type() == "package_declaration" || parent.Type() == "import_declaration")
}

// rewriteQualifiedName replaces the oldPkg prefix of a dotted name
// with newPkg, matching the same boundary rule as bounded textual
// substitution (§4.4): the match must be the whole name or be
// followed by '.'.
func rewriteQualifiedName(name, oldPkg, newPkg string) (string, bool) {
	if name == oldPkg {
		return newPkg, true
	}
	prefix := oldPkg + "."
	if strings.HasPrefix(name, prefix) {
		return newPkg + "." + name[len(prefix):], true
	}
	return name, false
}

// firstErrorLine walks the tree depth-first for the first ERROR or
// missing node and returns its 1-based line.
func firstErrorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if line := firstErrorLine(n.Child(i)); line > 0 {
			return line
		}
	}
	return 0
}

// DetectPackage returns the declared package name of a parsed Java
// compilation unit, or "" for the default package.
func DetectPackage(content []byte) (string, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() != "package_declaration" {
			continue
		}
		for j := 0; j < int(n.NamedChildCount()); j++ {
			child := n.NamedChild(j)
			if qualifiedNodeTypes[child.Type()] || child.Type() == "identifier" {
				return child.Content(content), nil
			}
		}
	}
	return "", nil
}
