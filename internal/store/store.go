package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/aharikum/forensicx/pkg/models"
)

var (
	// ErrStoreUnavailable means the store could not be read or written.
	// Fatal to the current operation; per-entry data is never dropped silently.
	ErrStoreUnavailable = errors.New("snapshot store unavailable")
	// ErrIncompatibleBaseline means a requested baseline is missing, corrupt,
	// or written by an incompatible format version. Fatal to a diff operation.
	ErrIncompatibleBaseline = errors.New("incompatible baseline")
	// ErrNoSnapshot means no snapshot exists yet for the mount path.
	ErrNoSnapshot = errors.New("no snapshot for mount path")
)

// formatVersion is bumped whenever the persisted layout changes shape.
// Load refuses other versions instead of misreading them.
const formatVersion = 1

const snapExt = ".snap"

// SnapshotID identifies one persisted snapshot: "<mount-key>/<utc-stamp>.snap",
// relative to the store directory. IDs of one mount sort chronologically.
type SnapshotID string

// envelope is the self-describing persisted form: a version header around
// the snapshot body. The body is CBOR, the whole file zstd-compressed.
type envelope struct {
	FormatVersion int              `cbor:"format_version"`
	Snapshot      *models.Snapshot `cbor:"snapshot"`
}

// encMode keeps nanosecond timestamp fidelity so load(save(S)) == S.
var encMode, _ = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()

// Store persists snapshots under a directory, one subdirectory per mount
// path. It is the engine's only shared mutable resource: saves targeting the
// same mount path serialize, and files appear atomically (temp + rename), so
// concurrent loads never observe a partial write.
type Store struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-mount-key save locks
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string, logger *zap.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Save persists a snapshot and returns its id.
func (s *Store) Save(snap *models.Snapshot) (SnapshotID, error) {
	key := mountKey(snap.MountPath)

	lock := s.mountLock(key)
	lock.Lock()
	defer lock.Unlock()

	mountDir := filepath.Join(s.dir, key)
	if err := os.MkdirAll(mountDir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", ErrStoreUnavailable, mountDir, err)
	}

	body, err := encMode.Marshal(&envelope{FormatVersion: formatVersion, Snapshot: snap})
	if err != nil {
		return "", fmt.Errorf("%w: encoding snapshot: %v", ErrStoreUnavailable, err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	compressed := enc.EncodeAll(body, nil)
	enc.Close()

	// Identical start times (clock granularity, restored clocks) must not
	// make the second save silently replace the first; suffix until free.
	// The per-mount lock is held, so the existence check cannot race a save.
	stamp := snap.StartTime.UTC().Format("20060102T150405.000000000Z")
	name := stamp + snapExt
	finalPath := filepath.Join(mountDir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(finalPath); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("%s_%d%s", stamp, i, snapExt)
		finalPath = filepath.Join(mountDir, name)
	}

	// Write to a temp file in the same directory, then rename: a reader can
	// only ever open a complete snapshot.
	tmp, err := os.CreateTemp(mountDir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: writing snapshot: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	id := SnapshotID(key + "/" + name)
	s.logger.Info("Snapshot saved",
		zap.String("id", string(id)),
		zap.Int("entries", len(snap.Files)),
		zap.Int("bytes", len(compressed)))

	return id, nil
}

// Load reads a snapshot back. A missing or corrupt file, or a format version
// this build does not understand, fails with ErrIncompatibleBaseline rather
// than misreading.
func (s *Store) Load(id SnapshotID) (*models.Snapshot, error) {
	rel := filepath.Clean(filepath.FromSlash(string(id)))
	if strings.Contains(rel, "..") || filepath.IsAbs(rel) {
		return nil, fmt.Errorf("%w: malformed snapshot id %q", ErrIncompatibleBaseline, id)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: snapshot %s not found", ErrIncompatibleBaseline, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer dec.Close()

	body, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot %s is corrupt: %v", ErrIncompatibleBaseline, id, err)
	}

	var env envelope
	if err := cbor.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: snapshot %s is corrupt: %v", ErrIncompatibleBaseline, id, err)
	}
	if env.FormatVersion != formatVersion {
		return nil, fmt.Errorf("%w: snapshot %s has format version %d, this build reads %d",
			ErrIncompatibleBaseline, id, env.FormatVersion, formatVersion)
	}
	if env.Snapshot == nil || env.Snapshot.Files == nil {
		return nil, fmt.Errorf("%w: snapshot %s has no file inventory", ErrIncompatibleBaseline, id)
	}

	return env.Snapshot, nil
}

// Latest returns the id of the newest snapshot for a mount path, or
// ErrNoSnapshot when none exists.
func (s *Store) Latest(mountPath string) (SnapshotID, error) {
	ids, err := s.List(mountPath)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoSnapshot, mountPath)
	}
	return ids[len(ids)-1], nil
}

// List returns every snapshot id for a mount path, oldest first.
func (s *Store) List(mountPath string) ([]SnapshotID, error) {
	key := mountKey(mountPath)
	mountDir := filepath.Join(s.dir, key)

	entries, err := os.ReadDir(mountDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var ids []SnapshotID
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapExt) {
			continue
		}
		ids = append(ids, SnapshotID(key+"/"+e.Name()))
	}
	// Names are UTC timestamps, so lexical order is chronological.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// mountLock returns the save lock for one mount key.
func (s *Store) mountLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[key] == nil {
		s.locks[key] = &sync.Mutex{}
	}
	return s.locks[key]
}

// mountKey derives the store subdirectory for a mount path. Hashing keeps
// the layout flat and independent of path separators or length.
func mountKey(mountPath string) string {
	abs, err := filepath.Abs(mountPath)
	if err != nil {
		abs = mountPath
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:8])
}
