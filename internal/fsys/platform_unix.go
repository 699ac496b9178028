//go:build !windows

package fsys

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/aharikum/forensicx/pkg/models"
)

// permMask keeps the permission bits plus setuid/setgid/sticky; a widened
// setuid bit is exactly the kind of change the classifier must see.
const permMask = 0o7777

// lstat reads all metadata fields with one unix.Lstat call and never
// follows symlinks.
func lstat(path string) (*statResult, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return nil, err
	}

	return &statResult{
		Kind:       kindOfMode(st.Mode),
		Size:       st.Size,
		AccessTime: timespecToTime(st.Atim),
		ModTime:    timespecToTime(st.Mtim),
		ChangeTime: timespecToTime(st.Ctim),
		UID:        st.Uid,
		GID:        st.Gid,
		Perm:       uint32(st.Mode) & permMask,
	}, nil
}

// kindOfMode maps the raw stat mode's type bits to an entry kind.
func kindOfMode(mode uint32) models.EntryKind {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return models.KindRegular
	case unix.S_IFDIR:
		return models.KindDirectory
	case unix.S_IFLNK:
		return models.KindSymlink
	default:
		// Sockets, FIFOs, character and block devices: recorded, not hashed.
		return models.KindOther
	}
}

func timespecToTime(ts unix.Timespec) time.Time {
	return time.Unix(ts.Sec, ts.Nsec)
}
