package diff

import (
	"errors"
	"testing"
	"time"

	"github.com/aharikum/forensicx/pkg/models"
)

var testPair = models.DigestPair{Fast: "md5", Strong: "sha256"}

var scanTime = time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

func record(path string, kind models.EntryKind, mutate ...func(*models.FileRecord)) *models.FileRecord {
	rec := &models.FileRecord{
		RelPath:    path,
		Kind:       kind,
		Size:       5,
		AccessTime: scanTime,
		ModTime:    scanTime,
		ChangeTime: scanTime,
		UID:        1000,
		GID:        1000,
		Perm:       0o644,
	}
	if kind == models.KindRegular {
		rec.FastDigest = "f-" + path
		rec.StrongDigest = "s-" + path
	}
	for _, m := range mutate {
		m(rec)
	}
	return rec
}

func snapshotOf(records ...*models.FileRecord) *models.Snapshot {
	files := make(map[string]*models.FileRecord)
	for _, r := range records {
		files[r.RelPath] = r
	}
	return &models.Snapshot{
		MountPath:  "/mnt/evidence",
		StartTime:  scanTime,
		EndTime:    scanTime.Add(time.Second),
		DigestPair: testPair,
		Files:      files,
	}
}

func paths(changes []*models.Change) []string {
	var out []string
	for _, c := range changes {
		out = append(out, c.RelPath)
	}
	return out
}

func hasPath(changes []*models.Change, path string) bool {
	for _, c := range changes {
		if c.RelPath == path {
			return true
		}
	}
	return false
}

func TestCompare_Scenario(t *testing.T) {
	// baseline: a.txt="hello", b.txt="world"
	// current:  a.txt unchanged, b.txt="world!", c.txt added
	baseline := snapshotOf(
		record("a.txt", models.KindRegular),
		record("b.txt", models.KindRegular),
	)
	current := snapshotOf(
		record("a.txt", models.KindRegular),
		record("b.txt", models.KindRegular, func(r *models.FileRecord) {
			r.FastDigest = "f-b-new"
			r.StrongDigest = "s-b-new"
			r.Size = 6
			r.ModTime = scanTime.Add(time.Minute)
		}),
		record("c.txt", models.KindRegular),
	)

	res, err := Compare(baseline, current, nil)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if !hasPath(res.Added, "c.txt") || len(res.Added) != 1 {
		t.Errorf("Compare() added = %v, want [c.txt]", paths(res.Added))
	}
	if !hasPath(res.ContentModified, "b.txt") || len(res.ContentModified) != 1 {
		t.Errorf("Compare() content modified = %v, want [b.txt]", paths(res.ContentModified))
	}
	if len(res.Removed) != 0 {
		t.Errorf("Compare() removed = %v, want empty", paths(res.Removed))
	}
	if hasPath(res.MetadataModified, "a.txt") {
		t.Error("Compare() flagged unchanged a.txt as metadata modified")
	}
}

func TestCompare_Idempotent(t *testing.T) {
	snap := snapshotOf(
		record("a.txt", models.KindRegular),
		record("dir", models.KindDirectory),
		record("link", models.KindSymlink, func(r *models.FileRecord) { r.LinkTarget = "a.txt" }),
		record("locked", models.KindUnreadable, func(r *models.FileRecord) { r.Error = "permission denied" }),
	)

	res, err := Compare(snap, snap, nil)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(res.Added)+len(res.Removed)+len(res.ContentModified)+len(res.MetadataModified) != 0 {
		t.Errorf("Compare(S, S) not empty: added=%v removed=%v content=%v metadata=%v",
			paths(res.Added), paths(res.Removed), paths(res.ContentModified), paths(res.MetadataModified))
	}
}

func TestCompare_Deterministic(t *testing.T) {
	baseline := snapshotOf(
		record("a.txt", models.KindRegular),
		record("b.txt", models.KindRegular),
	)
	current := snapshotOf(
		record("b.txt", models.KindRegular, func(r *models.FileRecord) { r.FastDigest = "x"; r.StrongDigest = "y" }),
		record("c.txt", models.KindRegular),
	)

	r1, err := Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}

	if r1.Total() != r2.Total() {
		t.Fatalf("Compare() totals differ: %d vs %d", r1.Total(), r2.Total())
	}
	for i := range r1.Added {
		if r1.Added[i].RelPath != r2.Added[i].RelPath {
			t.Error("Compare() added order differs between runs")
		}
	}
}

func TestCompare_RemovedNeverModified(t *testing.T) {
	baseline := snapshotOf(record("gone.txt", models.KindRegular))
	current := snapshotOf()

	res, err := Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !hasPath(res.Removed, "gone.txt") {
		t.Errorf("Compare() removed = %v, want [gone.txt]", paths(res.Removed))
	}
	if hasPath(res.ContentModified, "gone.txt") || hasPath(res.MetadataModified, "gone.txt") {
		t.Error("Compare() placed a removed path in a modified set")
	}
}

func TestCompare_KindChangeIsolation(t *testing.T) {
	baseline := snapshotOf(record("p", models.KindRegular))
	current := snapshotOf(record("p", models.KindDirectory))

	res, err := Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !hasPath(res.Removed, "p") {
		t.Error("Compare() kind change missing from removed")
	}
	if !hasPath(res.Added, "p") {
		t.Error("Compare() kind change missing from added")
	}
	if hasPath(res.ContentModified, "p") || hasPath(res.MetadataModified, "p") {
		t.Error("Compare() kind change classified as modified")
	}
}

func TestCompare_UnreadableAnomaly(t *testing.T) {
	baseline := snapshotOf(record("secret.txt", models.KindRegular))
	current := snapshotOf(record("secret.txt", models.KindUnreadable, func(r *models.FileRecord) {
		r.FastDigest = ""
		r.StrongDigest = ""
		r.Error = "permission denied"
	}))

	res, err := Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !hasPath(res.Unreadable, "secret.txt") {
		t.Fatalf("Compare() unreadable = %v, want [secret.txt]", paths(res.Unreadable))
	}
	if hasPath(res.Removed, "secret.txt") || hasPath(res.ContentModified, "secret.txt") ||
		hasPath(res.MetadataModified, "secret.txt") {
		t.Error("Compare() unreadable entry leaked into another set")
	}
}

func TestCompare_UnreadableDirSubtreeRemoved(t *testing.T) {
	// Baseline saw the directory and its children; in the current scan the
	// directory is unreadable so its children are absent entirely.
	baseline := snapshotOf(
		record("d", models.KindDirectory),
		record("d/child.txt", models.KindRegular),
	)
	current := snapshotOf(
		record("d", models.KindUnreadable, func(r *models.FileRecord) { r.Error = "permission denied" }),
	)

	res, err := Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !hasPath(res.Removed, "d/child.txt") {
		t.Errorf("Compare() removed = %v, want d/child.txt", paths(res.Removed))
	}
	if !hasPath(res.Unreadable, "d") {
		t.Errorf("Compare() unreadable = %v, want d", paths(res.Unreadable))
	}
}

func TestCompare_MetadataModified(t *testing.T) {
	baseline := snapshotOf(record("secret.txt", models.KindRegular, func(r *models.FileRecord) {
		r.UID = 1000
		r.Perm = 0o600
	}))
	current := snapshotOf(record("secret.txt", models.KindRegular, func(r *models.FileRecord) {
		r.UID = 1001
		r.Perm = 0o600
	}))

	res, err := Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !hasPath(res.MetadataModified, "secret.txt") || len(res.MetadataModified) != 1 {
		t.Fatalf("Compare() metadata modified = %v, want [secret.txt]", paths(res.MetadataModified))
	}

	change := res.MetadataModified[0]
	found := false
	for _, f := range change.Fields {
		if f.Field == "uid" && f.Before == "1000" && f.After == "1001" {
			found = true
		}
	}
	if !found {
		t.Errorf("Compare() evidence = %+v, want uid 1000 -> 1001", change.Fields)
	}
}

func TestCompare_DigestsAuthoritative(t *testing.T) {
	// Metadata moved but digests agree: content unchanged, metadata-modified.
	baseline := snapshotOf(record("a.txt", models.KindRegular))
	current := snapshotOf(record("a.txt", models.KindRegular, func(r *models.FileRecord) {
		r.ModTime = scanTime.Add(time.Hour)
		r.Size = 5
	}))

	res, err := Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}

	if hasPath(res.ContentModified, "a.txt") {
		t.Error("Compare() equal digests classified as content modified")
	}
	if !hasPath(res.MetadataModified, "a.txt") {
		t.Error("Compare() mtime change not classified as metadata modified")
	}
}

func TestCompare_IgnorePatterns(t *testing.T) {
	baseline := snapshotOf(record("cache/tmp.dat", models.KindRegular))
	current := snapshotOf(record("cache/tmp.dat", models.KindRegular, func(r *models.FileRecord) {
		r.FastDigest = "x"
		r.StrongDigest = "y"
	}))

	res, err := Compare(baseline, current, []string{"cache/**"})
	if err != nil {
		t.Fatal(err)
	}

	if !res.Empty() {
		t.Errorf("Compare() with ignore pattern not empty: %d changes", res.Total())
	}
}

func TestCompare_DigestPairMismatch(t *testing.T) {
	baseline := snapshotOf(record("a.txt", models.KindRegular))
	current := snapshotOf(record("a.txt", models.KindRegular))
	current.DigestPair = models.DigestPair{Fast: "crc32", Strong: "blake3"}

	_, err := Compare(baseline, current, nil)
	if !errors.Is(err, ErrIncomparableSnapshots) {
		t.Errorf("Compare() error = %v, want ErrIncomparableSnapshots", err)
	}
}
