// Package diff computes the structural delta between two snapshots of the
// same logical filesystem.
package diff

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aharikum/forensicx/pkg/models"
)

// ErrIncomparableSnapshots means the two snapshots cannot be diffed, e.g.
// they were scanned with different digest pairs. Fatal to the diff operation.
var ErrIncomparableSnapshots = errors.New("snapshots are not comparable")

// Compare diffs a baseline snapshot against a current one. Both snapshots
// are read-only here; the result references their records without copying.
//
// Comparison is keyed purely by relative path, so the output does not depend
// on either scan's traversal order. Digests are authoritative for content:
// equal digests mean unchanged content even when metadata says otherwise,
// and any digest difference means content-modified regardless of metadata.
// A kind change is removed+added, never modified. An entry unreadable in
// either snapshot is excluded from content comparison and isolated as an
// unreadable anomaly. Ignore patterns exclude matching paths entirely.
func Compare(baseline, current *models.Snapshot, ignore []string) (*models.DiffResult, error) {
	if !baseline.DigestPair.Equal(current.DigestPair) {
		return nil, fmt.Errorf("%w: baseline digests %s, current digests %s",
			ErrIncomparableSnapshots, baseline.DigestPair, current.DigestPair)
	}

	res := &models.DiffResult{
		BaselineStart: baseline.StartTime,
		CurrentStart:  current.StartTime,
		MountPath:     current.MountPath,
	}

	for path, cur := range current.Files {
		if ignored(path, ignore) {
			continue
		}

		base, inBaseline := baseline.Files[path]
		if !inBaseline {
			res.Added = append(res.Added, addedChange(path, cur))
			continue
		}

		route(res, path, base, cur)
	}

	for path, base := range baseline.Files {
		if ignored(path, ignore) {
			continue
		}
		if _, inCurrent := current.Files[path]; !inCurrent {
			res.Removed = append(res.Removed, removedChange(path, base))
		}
	}

	res.SortChanges()
	return res, nil
}

// route places one intersection entry into the correct change list.
func route(res *models.DiffResult, path string, base, cur *models.FileRecord) {
	fields := fieldChanges(base, cur)

	// Unreadability on either side makes content comparison meaningless.
	// The missing digest must not be conflated with "no change".
	if base.Kind == models.KindUnreadable || cur.Kind == models.KindUnreadable {
		res.Unreadable = append(res.Unreadable, &models.Change{
			RelPath: path, Baseline: base, Current: cur, Fields: fields,
		})
		return
	}

	// A kind change (file replaced by directory, ...) is removed+added:
	// no content comparison is meaningful across kinds.
	if base.Kind != cur.Kind {
		res.Removed = append(res.Removed, removedChange(path, base))
		res.Added = append(res.Added, addedChange(path, cur))
		return
	}

	if base.Kind == models.KindRegular && base.Hashed() && cur.Hashed() {
		if base.FastDigest != cur.FastDigest || base.StrongDigest != cur.StrongDigest {
			res.ContentModified = append(res.ContentModified, &models.Change{
				RelPath: path, Baseline: base, Current: cur, Fields: fields,
			})
			return
		}
	}

	if len(fields) > 0 {
		res.MetadataModified = append(res.MetadataModified, &models.Change{
			RelPath: path, Baseline: base, Current: cur, Fields: fields,
		})
	}
}

func addedChange(path string, cur *models.FileRecord) *models.Change {
	return &models.Change{RelPath: path, Current: cur}
}

func removedChange(path string, base *models.FileRecord) *models.Change {
	return &models.Change{RelPath: path, Baseline: base}
}

// fieldChanges lists every attribute that differs between two records of the
// same path, rendered for the report.
func fieldChanges(base, cur *models.FileRecord) []models.FieldChange {
	var fields []models.FieldChange

	add := func(name, before, after string) {
		if before != after {
			fields = append(fields, models.FieldChange{Field: name, Before: before, After: after})
		}
	}

	add("kind", string(base.Kind), string(cur.Kind))
	// Directory sizes are filesystem bookkeeping, not evidence.
	if base.Kind != models.KindDirectory || cur.Kind != models.KindDirectory {
		add("size", strconv.FormatInt(base.Size, 10), strconv.FormatInt(cur.Size, 10))
	}
	add("atime", formatTime(base.AccessTime), formatTime(cur.AccessTime))
	add("mtime", formatTime(base.ModTime), formatTime(cur.ModTime))
	add("ctime", formatTime(base.ChangeTime), formatTime(cur.ChangeTime))
	add("uid", strconv.FormatUint(uint64(base.UID), 10), strconv.FormatUint(uint64(cur.UID), 10))
	add("gid", strconv.FormatUint(uint64(base.GID), 10), strconv.FormatUint(uint64(cur.GID), 10))
	add("perm", formatPerm(base.Perm), formatPerm(cur.Perm))
	add("link_target", base.LinkTarget, cur.LinkTarget)
	add("fast_digest", base.FastDigest, cur.FastDigest)
	add("strong_digest", base.StrongDigest, cur.StrongDigest)
	add("error", base.Error, cur.Error)

	return fields
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatPerm(perm uint32) string {
	return "0" + strconv.FormatUint(uint64(perm), 8)
}

func ignored(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}
