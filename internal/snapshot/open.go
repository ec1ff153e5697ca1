package snapshot

import (
	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
	"github.com/weehong/smartbootstrapper/internal/manifest"
)

// Open opens the Store appropriate for m's declared source type,
// rooted at sourceRepository (a filesystem path in both backends:
// a VCS working copy, or a directory of ZIP archives).
func Open(m *manifest.Manifest) (Store, error) {
	switch m.SourceType {
	case manifest.SourceTypeVCS:
		return NewGitStore(m.SourceRepository)
	case manifest.SourceTypeZip:
		return NewZipStore(m.SourceRepository)
	default:
		return nil, bootstraperr.New(bootstraperr.KindManifest, "unknown source type %q", m.SourceType)
	}
}
