package fsys

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/aharikum/forensicx/pkg/models"
)

// Entry is one walked filesystem entry: its path relative to the walk root,
// its kind, and the error that made it unreadable, if any.
type Entry struct {
	RelPath string
	Kind    models.EntryKind
	Err     error
}

// Walker traverses a mount point's tree in stable lexical order. Symbolic
// links are yielded but never followed, so link cycles cannot loop the walk.
// An unreadable directory is yielded as an unreadable entry and its subtree
// skipped; siblings keep walking. A single permission error never aborts
// the scan.
type Walker struct {
	ignore []string
	logger *zap.Logger
}

// NewWalker creates a new filesystem walker. Ignore patterns are doublestar
// globs matched against relative paths; matching directories are pruned.
func NewWalker(ignore []string, logger *zap.Logger) *Walker {
	return &Walker{
		ignore: ignore,
		logger: logger,
	}
}

// Walk traverses root depth-first and calls fn for every reachable entry,
// including empty directories. The root itself is not yielded. Walk stops
// early only on context cancellation or a non-nil error from fn.
func (w *Walker) Walk(ctx context.Context, root string, fn func(*Entry) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		if relPath == "." {
			// The mount root itself is the frame of reference, not an entry.
			if err != nil {
				return err // root unreadable: the whole scan fails
			}
			return nil
		}

		if w.shouldIgnore(relPath) {
			w.logger.Debug("Ignoring path", zap.String("path", relPath))
			if err == nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if err != nil {
			// WalkDir reports a directory twice when its listing fails:
			// once on entry and once with the ReadDir error. Record the
			// failure as an unreadable entry; the subtree is skipped by
			// WalkDir itself and siblings continue.
			w.logger.Warn("Unreadable path", zap.String("path", relPath), zap.Error(err))
			return fn(&Entry{RelPath: relPath, Kind: models.KindUnreadable, Err: err})
		}

		return fn(&Entry{RelPath: relPath, Kind: kindOf(d.Type())})
	})
}

// shouldIgnore checks relPath against the configured glob patterns.
func (w *Walker) shouldIgnore(relPath string) bool {
	for _, pattern := range w.ignore {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// kindOf maps a file mode's type bits to an entry kind.
func kindOf(mode fs.FileMode) models.EntryKind {
	switch {
	case mode.IsRegular():
		return models.KindRegular
	case mode.IsDir():
		return models.KindDirectory
	case mode&fs.ModeSymlink != 0:
		return models.KindSymlink
	default:
		return models.KindOther
	}
}
