package fsys

import (
	"os"
	"path/filepath"
	"time"

	"github.com/aharikum/forensicx/pkg/models"
)

// ExtractMetadata reads the metadata fields of one entry with a single
// lstat-like operation, so size and timestamps are mutually consistent as a
// best effort. No cross-field guarantee holds if the file is concurrently
// modified during extraction; that race is accepted, not fatal.
//
// A path the walker already listed never produces an error here: stat
// failure (permission denied, path vanished mid-scan, I/O error) is recorded
// as the unreadable marker on the returned record.
func ExtractMetadata(root, relPath string) *models.FileRecord {
	rec := &models.FileRecord{RelPath: relPath}
	absPath := filepath.Join(root, filepath.FromSlash(relPath))

	st, err := lstat(absPath)
	if err != nil {
		rec.Kind = models.KindUnreadable
		rec.Error = err.Error()
		return rec
	}

	rec.Kind = st.Kind
	rec.Size = st.Size
	rec.AccessTime = st.AccessTime
	rec.ModTime = st.ModTime
	rec.ChangeTime = st.ChangeTime
	rec.UID = st.UID
	rec.GID = st.GID
	rec.Perm = st.Perm

	if rec.Kind == models.KindSymlink {
		// The link target is part of the evidence; reading it never
		// dereferences the link.
		if target, err := os.Readlink(absPath); err == nil {
			rec.LinkTarget = target
		}
	}

	return rec
}

// statResult carries the platform-extracted metadata fields.
type statResult struct {
	Kind       models.EntryKind
	Size       int64
	AccessTime time.Time
	ModTime    time.Time
	ChangeTime time.Time
	UID        uint32
	GID        uint32
	Perm       uint32
}
