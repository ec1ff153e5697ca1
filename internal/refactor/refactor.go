// Package refactor implements the Refactor Engine (C4): rewriting
// harvested artifact content and destination paths from an old
// package identifier to a new one, per §4.4.
package refactor

import (
	"path/filepath"

	"github.com/weehong/smartbootstrapper/internal/harvest"
	"github.com/weehong/smartbootstrapper/internal/progress"
)

// Rewritten is the refactored counterpart of a harvest.Artifact: the
// destination path has had its Java source-root segment rewritten (if
// applicable), and the content has been rewritten according to its
// extension.
type Rewritten struct {
	DestinationPath string
	Content         []byte
	TargetDirectory string
}

// RefactorAll applies the refactor step to every harvested artifact,
// matching §4.4's composite refactor_all(files, content_old_pkg,
// new_pkg, path_old_pkg) operation. The two old-package arguments are
// deliberately decoupled: contentOldPkg matches the package
// declarations embedded in the harvested source (inferred from
// source paths, or given explicitly), while pathOldPkg matches the
// on-disk layout of the manifest's destination paths (which may
// already use a transitional naming) — conflating them risks
// double-rewriting or silently missing a rewrite.
//
// Destination paths are transformed unconditionally (§4.4's path
// transformation is attempted regardless of file extension); content
// is rewritten via the AST path for .java files, bounded textual
// substitution for recognized text-like resources, and left
// unmodified for everything else (§4.4's "passthrough" case).
//
// If newPkg is empty, no package was configured and every artifact
// passes through with only its manifest-declared paths, matching §4.1's
// "project config without an old package performs no rewriting".
func RefactorAll(artifacts []harvest.Artifact, contentOldPkg, newPkg, pathOldPkg string, manifestSeq int, sink progress.Sink) ([]Rewritten, error) {
	out := make([]Rewritten, 0, len(artifacts))
	for _, a := range artifacts {
		destPath := a.DestinationPath
		content := a.Content

		if newPkg != "" {
			if pathOldPkg != "" {
				destPath = TransformPath(destPath, pathOldPkg, newPkg)
			}

			if contentOldPkg != "" {
				ext := filepath.Ext(destPath)
				switch {
				case ext == ".java":
					rewritten, err := RewriteJava(a.DestinationPath, content, contentOldPkg, newPkg)
					if err != nil {
						return nil, err
					}
					content = rewritten
				case IsTextLike(ext):
					content = RewriteText(content, contentOldPkg, newPkg)
				}
			}
		}

		if sink != nil {
			sink.Emit(progress.Event{
				Stage:    progress.StageRefactor,
				Manifest: manifestSeq,
				Path:     destPath,
				Message:  "refactored",
			})
		}

		out = append(out, Rewritten{
			DestinationPath: destPath,
			Content:         content,
			TargetDirectory: a.TargetDirectory,
		})
	}
	return out, nil
}
