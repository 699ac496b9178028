package models

import (
	"sort"
	"time"
)

// FieldChange records one attribute that differs between baseline and
// current, with both values rendered for the report.
type FieldChange struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Change is one path-level difference between two snapshots. Baseline or
// Current is nil for added/removed entries.
type Change struct {
	RelPath  string        `json:"rel_path"`
	Baseline *FileRecord   `json:"baseline,omitempty"`
	Current  *FileRecord   `json:"current,omitempty"`
	Fields   []FieldChange `json:"fields,omitempty"` // attributes that differ
}

// DiffResult is the structural delta between a baseline and a current
// Snapshot. It references both snapshots read-only and is derived, never
// persisted on its own.
//
// A path appears in at most one list, with one exception: an entry whose
// kind changed appears in both Removed and Added, since no content
// comparison is meaningful across kinds. Entries unreadable in either
// snapshot are isolated in Unreadable; a missing digest is never conflated
// with "no change".
type DiffResult struct {
	BaselineStart time.Time `json:"baseline_start"`
	CurrentStart  time.Time `json:"current_start"`
	MountPath     string    `json:"mount_path"`

	Added            []*Change `json:"added"`
	Removed          []*Change `json:"removed"`
	ContentModified  []*Change `json:"content_modified"`
	MetadataModified []*Change `json:"metadata_modified"`
	Unreadable       []*Change `json:"unreadable"`
}

// Empty reports whether the diff contains no changes at all.
func (d *DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 &&
		len(d.ContentModified) == 0 && len(d.MetadataModified) == 0 &&
		len(d.Unreadable) == 0
}

// Total returns the number of change entries across all lists.
func (d *DiffResult) Total() int {
	return len(d.Added) + len(d.Removed) + len(d.ContentModified) +
		len(d.MetadataModified) + len(d.Unreadable)
}

// SortChanges orders every list by path so reports are reproducible.
func (d *DiffResult) SortChanges() {
	for _, list := range [][]*Change{
		d.Added, d.Removed, d.ContentModified, d.MetadataModified, d.Unreadable,
	} {
		sort.Slice(list, func(i, j int) bool { return list[i].RelPath < list[j].RelPath })
	}
}
