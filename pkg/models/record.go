package models

import (
	"time"
)

// EntryKind classifies a filesystem entry. The set is closed: every switch
// over an EntryKind must handle all five values.
type EntryKind string

const (
	KindRegular    EntryKind = "regular"
	KindDirectory  EntryKind = "directory"
	KindSymlink    EntryKind = "symlink"
	KindOther      EntryKind = "other"
	KindUnreadable EntryKind = "unreadable"
)

// Valid reports whether k is one of the five known kinds.
func (k EntryKind) Valid() bool {
	switch k {
	case KindRegular, KindDirectory, KindSymlink, KindOther, KindUnreadable:
		return true
	}
	return false
}

// DigestPair names the two content digest algorithms used by a scan:
// a fast/legacy digest and a collision-resistant one.
type DigestPair struct {
	Fast   string `json:"fast"`   // crc32, md5, sha1
	Strong string `json:"strong"` // sha256, sha512, blake3
}

// Equal reports whether two pairs name the same algorithms.
func (p DigestPair) Equal(o DigestPair) bool {
	return p.Fast == o.Fast && p.Strong == o.Strong
}

func (p DigestPair) String() string {
	return p.Fast + "," + p.Strong
}

// FileRecord is one entry in a Snapshot.
//
// Digests are present iff Kind == KindRegular and the file was readable at
// scan time. An entry that could not be fully observed (stat failure, read
// failure, hash timeout, unreadable directory) is recorded with
// Kind == KindUnreadable and Error set, never omitted: the inability to read
// a path is itself evidence.
type FileRecord struct {
	RelPath      string    `json:"rel_path"`              // path relative to the mount root
	Kind         EntryKind `json:"kind"`                  // entry kind
	Size         int64     `json:"size"`                  // size in bytes
	AccessTime   time.Time `json:"atime"`                 // last access
	ModTime      time.Time `json:"mtime"`                 // last content modification
	ChangeTime   time.Time `json:"ctime"`                 // last inode/metadata change
	UID          uint32    `json:"uid"`                   // owning user id
	GID          uint32    `json:"gid"`                   // owning group id
	Perm         uint32    `json:"perm"`                  // permission bits incl. setuid/setgid/sticky
	LinkTarget   string    `json:"link_target,omitempty"` // symlink target, symlinks only
	FastDigest   string    `json:"fast_digest,omitempty"` // hex digest, regular files only
	StrongDigest string    `json:"strong_digest,omitempty"`
	Error        string    `json:"error,omitempty"` // why the entry is unreadable
}

// Hashed reports whether the record carries content digests.
func (r *FileRecord) Hashed() bool {
	return r.FastDigest != "" && r.StrongDigest != ""
}
