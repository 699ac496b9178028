package models

import "time"

// Snapshot is an immutable, timestamped inventory of a mount point: one
// FileRecord per reachable path, keyed by path relative to the mount root.
// Relative keys make two snapshots of the same logical filesystem comparable
// even when taken through different mount points.
//
// A Snapshot is created once by the builder and never mutated afterwards;
// a newer scan supersedes it, it is never edited in place.
type Snapshot struct {
	MountPath  string                 `json:"mount_path"`
	StartTime  time.Time              `json:"start_time"`
	EndTime    time.Time              `json:"end_time"`
	DigestPair DigestPair             `json:"digest_pair"`
	Files      map[string]*FileRecord `json:"files"`
}

// Paths returns the snapshot's relative paths in unspecified order.
func (s *Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.Files))
	for p := range s.Files {
		paths = append(paths, p)
	}
	return paths
}

// Unreadable returns how many entries carry the unreadable marker.
func (s *Snapshot) Unreadable() int {
	n := 0
	for _, rec := range s.Files {
		if rec.Kind == KindUnreadable {
			n++
		}
	}
	return n
}
