package tracker

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/lectio/internal/artifact"
	"github.com/starford/lectio/internal/checksum"
	"github.com/starford/lectio/internal/course"
	"github.com/starford/lectio/internal/models"
	"github.com/starford/lectio/internal/storage"
)

// rebuildDelay coalesces bursts of remove/rename events into one rebuild.
const rebuildDelay = 200 * time.Millisecond

// EventCallback is invoked after the watcher has applied an index change.
// kind is "indexed" for upserts and "rebuilt" after a full reconstruction.
type EventCallback func(kind, path string)

// Watcher keeps the index tiers synchronized with the summary library while
// the server runs. New or modified summary artifacts are parsed and upserted
// directly; deletions and renames trigger a debounced full rebuild because a
// removal cannot be mapped to a single index entry.
type Watcher struct {
	root    string
	tracker *Tracker
	logger  *slog.Logger
	cb      EventCallback

	mu        sync.Mutex
	checksums map[string]string // path -> content hash, to skip no-op writes
	rebuildT  *time.Timer
}

// NewWatcher creates a Watcher over the library root. cb may be nil.
func NewWatcher(root string, tr *Tracker, logger *slog.Logger, cb EventCallback) *Watcher {
	return &Watcher{
		root:      root,
		tracker:   tr,
		logger:    logger,
		cb:        cb,
		checksums: make(map[string]string),
	}
}

// Run watches the library until ctx is cancelled. Directories created while
// watching are added to the watch set so new course folders are covered.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := addDirsRecursive(fsw, w.root); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", w.root))

	for {
		select {
		case <-ctx.Done():
			w.cancelRebuild()
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addDirsRecursive(fsw, ev.Name); err != nil {
				w.logger.Warn("watcher: add dir", slog.String("path", ev.Name), slog.String("error", err.Error()))
			}
			return
		}
		w.handleSummaryChange(ev.Name)
	case ev.Op.Has(fsnotify.Write):
		w.handleSummaryChange(ev.Name)
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		if !storage.IsSummaryFile(filepath.Base(ev.Name)) {
			return
		}
		w.forget(ev.Name)
		w.scheduleRebuild()
	}
}

// handleSummaryChange parses a created or modified summary artifact and
// upserts it into both tiers. Unchanged content is skipped via checksum.
func (w *Watcher) handleSummaryChange(path string) {
	if !storage.IsSummaryFile(filepath.Base(path)) {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("watcher: read", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	sum := checksum.Sum(data)
	w.mu.Lock()
	prev := w.checksums[path]
	w.checksums[path] = sum
	w.mu.Unlock()
	if prev == sum {
		return
	}

	art, warnings, err := artifact.Parse(data)
	if err != nil {
		w.logger.Warn("watcher: unreadable artifact", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	for _, msg := range warnings {
		w.logger.Debug("watcher: parse warning", slog.String("path", path), slog.String("warning", msg))
	}

	rec := w.recordFor(path, art)
	if err := w.tracker.RecordSummary(rec); err != nil {
		w.logger.Error("watcher: index update failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	w.logger.Info("watcher: summary indexed",
		slog.String("course", rec.CourseCode),
		slog.Int("week", rec.Week),
		slog.String("path", path))
	if w.cb != nil {
		w.cb("indexed", path)
	}
}

// recordFor derives the index record for an artifact picked up by the
// watcher, filling course and week from the path where the frontmatter is
// silent.
func (w *Watcher) recordFor(path string, art *models.SummaryArtifact) models.SummaryRecord {
	cctx := course.Detect(path, art.CourseCode, "")
	week := art.Week
	if week == 0 {
		week = cctx.Week
	}
	return models.SummaryRecord{
		CourseCode:   codeOr(art.CourseCode, cctx.CourseCode),
		CourseFolder: cctx.CourseFolder,
		Week:         week,
		Title:        art.Title,
		Author:       art.Author,
		Thesis:       art.Thesis,
		KeyConcepts:  art.KeyConcepts,
		SummaryPath:  path,
		Date:         art.GeneratedAt,
	}
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.checksums, path)
	w.mu.Unlock()
}

func (w *Watcher) scheduleRebuild() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rebuildT != nil {
		w.rebuildT.Stop()
	}
	w.rebuildT = time.AfterFunc(rebuildDelay, func() {
		if err := w.tracker.Rebuild(w.root); err != nil {
			w.logger.Error("watcher: rebuild failed", slog.String("error", err.Error()))
			return
		}
		if w.cb != nil {
			w.cb("rebuilt", w.root)
		}
	})
}

func (w *Watcher) cancelRebuild() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rebuildT != nil {
		w.rebuildT.Stop()
		w.rebuildT = nil
	}
}

func addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fsw.Add(p)
	})
}
