// Package tracker maintains the two persisted index tiers: the per-course
// learning history and the global master index.
//
// The tracker exclusively owns the read-modify-write transaction against an
// index file; no other component mutates index documents on disk.
package tracker

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/lectio/internal/apperr"
	"github.com/starford/lectio/internal/artifact"
	"github.com/starford/lectio/internal/course"
	"github.com/starford/lectio/internal/history"
	"github.com/starford/lectio/internal/indexdoc"
	"github.com/starford/lectio/internal/models"
)

const unknownCourse = "UNKNOWN"

// Tracker orchestrates index updates across the course and global tiers.
type Tracker struct {
	globalPath string
	logger     *slog.Logger

	now func() time.Time // stubbed in tests
}

// New creates a Tracker writing the global tier at globalPath. A leading ~
// in globalPath is expanded against the user's home directory.
func New(globalPath string, logger *slog.Logger) *Tracker {
	return &Tracker{
		globalPath: expandHome(globalPath),
		logger:     logger,
		now:        time.Now,
	}
}

// GlobalPath returns the resolved path of the global master index.
func (t *Tracker) GlobalPath() string { return t.globalPath }

// CourseMasterPath returns the course-tier index path for a course folder.
func CourseMasterPath(courseFolder, courseCode string) string {
	return filepath.Join(courseFolder, courseCode+"_master.md")
}

// RecordSummary upserts the summary's entry into both index tiers, course
// tier first. If the course tier fails the global tier is not attempted and
// the failure is returned as *apperr.MasterUpdateError naming the tier; the
// caller decides whether a generated-but-unindexed summary is retried or
// reported. Recording identical metadata twice leaves both tiers unchanged.
func (t *Tracker) RecordSummary(rec models.SummaryRecord) error {
	rec = normalize(rec, t.now())

	if rec.CourseFolder != "" {
		coursePath := CourseMasterPath(rec.CourseFolder, rec.CourseCode)
		err := Apply(coursePath, indexdoc.KindCourse,
			func() *indexdoc.Document { return indexdoc.NewCourse(rec.CourseCode) },
			func(d *indexdoc.Document) error {
				d.Upsert(courseEntry(rec))
				d.RecomputeFooter(t.now())
				return nil
			})
		if err != nil {
			return &apperr.MasterUpdateError{Tier: apperr.TierCourse, Path: coursePath, Err: err}
		}
		t.logger.Debug("tracker: course master updated", slog.String("path", coursePath))
	}

	err := Apply(t.globalPath, indexdoc.KindGlobal, indexdoc.NewGlobal,
		func(d *indexdoc.Document) error {
			d.Upsert(globalEntry(rec))
			d.RecomputeFooter(t.now())
			return nil
		})
	if err != nil {
		return &apperr.MasterUpdateError{Tier: apperr.TierGlobal, Path: t.globalPath, Err: err}
	}
	t.logger.Debug("tracker: global master updated", slog.String("path", t.globalPath))
	return nil
}

// Rebuild reconstructs both tiers from the summary artifacts on disk under
// root. Stale entries whose files are gone disappear; artifacts that fail
// to parse are logged and skipped. The global tier is rewritten even when
// no course folders remain, so deletions are reflected.
func (t *Tracker) Rebuild(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return &apperr.PersistenceError{Path: root, Err: err}
	}

	global := indexdoc.NewGlobal()

	for _, de := range entries {
		if !de.IsDir() {
			continue
		}
		folder := filepath.Join(root, de.Name())
		code := course.CodeFromName(de.Name())

		located, err := history.FindPriorArtifacts(folder)
		if err != nil {
			t.logger.Warn("rebuild: scan failed", slog.String("folder", folder), slog.String("error", err.Error()))
			continue
		}
		if len(located) == 0 {
			continue
		}

		courseDoc := indexdoc.NewCourse(codeOr(code, unknownCourse))
		for _, loc := range located {
			rec, ok := t.recordFromFile(loc, folder, code)
			if !ok {
				continue
			}
			courseDoc.Upsert(courseEntry(rec))
			global.Upsert(globalEntry(rec))
		}
		courseDoc.RecomputeFooter(t.now())

		coursePath := CourseMasterPath(folder, codeOr(code, unknownCourse))
		if err := writeAtomic(coursePath, indexdoc.Render(courseDoc)); err != nil {
			return &apperr.MasterUpdateError{Tier: apperr.TierCourse, Path: coursePath, Err: err}
		}
	}

	global.RecomputeFooter(t.now())
	if err := writeAtomic(t.globalPath, indexdoc.Render(global)); err != nil {
		return &apperr.MasterUpdateError{Tier: apperr.TierGlobal, Path: t.globalPath, Err: err}
	}

	t.logger.Info("rebuild: index tiers reconstructed",
		slog.String("root", root),
		slog.Int("entries", global.TotalEntries()))
	return nil
}

// recordFromFile parses one located artifact into a SummaryRecord.
func (t *Tracker) recordFromFile(loc history.Located, folder, folderCode string) (models.SummaryRecord, bool) {
	data, err := os.ReadFile(loc.Path)
	if err != nil {
		t.logger.Warn("rebuild: read failed", slog.String("path", loc.Path), slog.String("error", err.Error()))
		return models.SummaryRecord{}, false
	}
	art, _, err := artifact.Parse(data)
	if err != nil {
		t.logger.Warn("rebuild: skipping unreadable artifact", slog.String("path", loc.Path), slog.String("error", err.Error()))
		return models.SummaryRecord{}, false
	}

	week := art.Week
	if week == 0 {
		week = loc.Week
	}
	title := art.Title
	if title == "" {
		base := filepath.Base(loc.Path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	date := art.GeneratedAt
	if date.IsZero() {
		date = loc.ModTime
	}

	return models.SummaryRecord{
		CourseCode:   codeOr(art.CourseCode, codeOr(folderCode, unknownCourse)),
		CourseFolder: folder,
		Week:         week,
		Title:        title,
		Author:       art.Author,
		Thesis:       art.Thesis,
		KeyConcepts:  art.KeyConcepts,
		SummaryPath:  loc.Path,
		Date:         date,
	}, true
}

// normalize fills the rendering fallbacks so index entries never carry
// empty required fields.
func normalize(rec models.SummaryRecord, now time.Time) models.SummaryRecord {
	if rec.CourseCode == "" {
		rec.CourseCode = unknownCourse
	}
	if rec.Title == "" {
		rec.Title = "Untitled"
	}
	if rec.Author == "" {
		rec.Author = "Unknown"
	}
	if rec.Thesis == "" {
		rec.Thesis = "See full summary"
	}
	if len(rec.KeyConcepts) > artifact.MaxKeyConcepts {
		rec.KeyConcepts = rec.KeyConcepts[:artifact.MaxKeyConcepts]
	}
	if rec.Date.IsZero() {
		rec.Date = now
	}
	return rec
}

func courseEntry(rec models.SummaryRecord) indexdoc.Entry {
	return indexdoc.Entry{
		Course:   rec.CourseCode,
		Week:     rec.Week,
		Title:    rec.Title,
		Author:   rec.Author,
		Thesis:   rec.Thesis,
		Concepts: rec.KeyConcepts,
		Link:     courseLink(rec),
		Date:     rec.Date.Format(indexdoc.DateLayout),
	}
}

func globalEntry(rec models.SummaryRecord) indexdoc.Entry {
	return indexdoc.Entry{
		Course: rec.CourseCode,
		Week:   rec.Week,
		Title:  rec.Title,
		Author: rec.Author,
		Link:   rec.SummaryPath,
	}
}

// courseLink makes the summary path relative to the course folder so the
// course master links stay valid when the folder moves.
func courseLink(rec models.SummaryRecord) string {
	if rec.CourseFolder == "" || rec.SummaryPath == "" {
		return rec.SummaryPath
	}
	rel, err := filepath.Rel(rec.CourseFolder, rec.SummaryPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(rec.SummaryPath)
	}
	return rel
}

func codeOr(code, fallback string) string {
	if code != "" {
		return code
	}
	return fallback
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
