package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aharikum/forensicx/internal/config"
	"github.com/aharikum/forensicx/internal/fsys"
	"github.com/aharikum/forensicx/pkg/models"
)

// ProgressCallback is called to report scan progress.
type ProgressCallback func(scanned int, path string)

// Builder composes the walker, the metadata extractor and the hash computer
// into one complete Snapshot of a mount point.
//
// Every path the walker discovers gets a record: per-entry failures are
// absorbed into the record's unreadable marker, never propagated, so a scan
// always completes with a usable, if partial, inventory. Only context
// cancellation aborts the build, and then no snapshot is returned at all.
type Builder struct {
	config           *config.Config
	pair             models.DigestPair
	logger           *zap.Logger
	walker           *fsys.Walker
	progressCallback ProgressCallback

	mu      sync.Mutex
	scanned int
}

// NewBuilder creates a snapshot builder scanning with the given digest pair.
func NewBuilder(cfg *config.Config, pair models.DigestPair, logger *zap.Logger) *Builder {
	return &Builder{
		config: cfg,
		pair:   pair,
		logger: logger,
		walker: fsys.NewWalker(cfg.IgnorePaths, logger),
	}
}

// SetProgressCallback sets the progress callback function.
func (b *Builder) SetProgressCallback(cb ProgressCallback) {
	b.progressCallback = cb
}

// Build scans mountPath and assembles an immutable Snapshot. The mount must
// already be an active, readable mount; mounting is the caller's concern.
func (b *Builder) Build(ctx context.Context, mountPath string) (*models.Snapshot, error) {
	absPath, err := filepath.Abs(mountPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("mount path is not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("mount path %s is not a directory", absPath)
	}

	b.logger.Info("Starting scan",
		zap.String("mount", absPath),
		zap.String("digests", b.pair.String()),
		zap.Int("workers", b.workers()))

	startTime := time.Now()

	entryChan := make(chan *fsys.Entry, b.workers()*2)
	recordChan := make(chan *models.FileRecord, b.workers()*2)

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < b.workers(); i++ {
		wg.Add(1)
		go b.worker(ctx, &wg, absPath, entryChan, recordChan)
	}

	// Start record collector
	files := make(map[string]*models.FileRecord)
	var collectWg sync.WaitGroup
	collectWg.Add(1)
	go func() {
		defer collectWg.Done()
		for rec := range recordChan {
			// A directory whose listing fails is walked twice: first as a
			// directory, then as an unreadable entry. The worker pool makes
			// the arrival order racy, so duplicates resolve by content: the
			// unreadable marker always wins, it is evidence.
			if prev, ok := files[rec.RelPath]; ok &&
				prev.Kind == models.KindUnreadable && rec.Kind != models.KindUnreadable {
				continue
			}
			files[rec.RelPath] = rec
		}
	}()

	// Walk the mount and feed the workers
	walkErr := b.walker.Walk(ctx, absPath, func(e *fsys.Entry) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entryChan <- e:
			return nil
		}
	})

	close(entryChan)
	wg.Wait()
	close(recordChan)
	collectWg.Wait()

	if walkErr != nil {
		return nil, fmt.Errorf("scan aborted: %w", walkErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	snap := &models.Snapshot{
		MountPath:  absPath,
		StartTime:  startTime,
		EndTime:    time.Now(),
		DigestPair: b.pair,
		Files:      files,
	}

	b.logger.Info("Scan completed",
		zap.Int("entries", len(snap.Files)),
		zap.Int("unreadable", snap.Unreadable()),
		zap.Duration("duration", snap.EndTime.Sub(snap.StartTime)))

	return snap, nil
}

// worker turns walked entries into file records.
func (b *Builder) worker(ctx context.Context, wg *sync.WaitGroup, root string, entryChan <-chan *fsys.Entry, recordChan chan<- *models.FileRecord) {
	defer wg.Done()

	for e := range entryChan {
		select {
		case <-ctx.Done():
			return
		default:
			recordChan <- b.buildRecord(ctx, root, e)
			b.reportProgress(e.RelPath)
		}
	}
}

// buildRecord extracts metadata for one entry and, for readable regular
// files, computes both content digests.
func (b *Builder) buildRecord(ctx context.Context, root string, e *fsys.Entry) *models.FileRecord {
	if e.Kind == models.KindUnreadable {
		return &models.FileRecord{
			RelPath: e.RelPath,
			Kind:    models.KindUnreadable,
			Error:   e.Err.Error(),
		}
	}

	rec := fsys.ExtractMetadata(root, e.RelPath)
	if rec.Kind != models.KindRegular {
		return rec
	}

	hashCtx := ctx
	var cancel context.CancelFunc
	if b.config.HashTimeout > 0 {
		hashCtx, cancel = context.WithTimeout(ctx, time.Duration(b.config.HashTimeout)*time.Second)
		defer cancel()
	}

	absPath := filepath.Join(root, filepath.FromSlash(e.RelPath))
	fast, strong, err := fsys.HashFile(hashCtx, absPath, b.pair)
	if err != nil {
		if ctx.Err() != nil {
			// The whole scan is being cancelled; the walk loop surfaces it.
			return rec
		}
		// Hash failure or per-file timeout demotes the entry to unreadable
		// instead of stalling the scan. The partial digest is discarded.
		b.logger.Warn("Hashing failed", zap.String("path", e.RelPath), zap.Error(err))
		rec.Kind = models.KindUnreadable
		rec.Error = err.Error()
		return rec
	}

	rec.FastDigest = fast
	rec.StrongDigest = strong
	return rec
}

func (b *Builder) workers() int {
	if b.config.Workers > 0 {
		return b.config.Workers
	}
	return 4
}

func (b *Builder) reportProgress(path string) {
	if b.progressCallback == nil {
		return
	}
	b.mu.Lock()
	b.scanned++
	n := b.scanned
	b.mu.Unlock()
	b.progressCallback(n, path)
}
