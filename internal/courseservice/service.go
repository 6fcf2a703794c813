// Package courseservice exposes read operations over the course library and
// its index tiers to the HTTP and MCP transports.
package courseservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/lectio/internal/apperr"
	"github.com/starford/lectio/internal/artifact"
	"github.com/starford/lectio/internal/checksum"
	"github.com/starford/lectio/internal/course"
	"github.com/starford/lectio/internal/history"
	"github.com/starford/lectio/internal/indexdoc"
	"github.com/starford/lectio/internal/models"
	"github.com/starford/lectio/internal/storage"
	"github.com/starford/lectio/internal/tracker"
)

// CourseInfo is a lightweight course listing entry.
type CourseInfo struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Folder    string    `json:"folder"`
	Summaries int       `json:"summaries"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// SummaryDetail is the full representation of one stored summary.
type SummaryDetail struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Course      string    `json:"course,omitempty"`
	Week        int       `json:"week,omitempty"`
	Thesis      string    `json:"thesis,omitempty"`
	KeyConcepts []string  `json:"key_concepts"`
	Content     string    `json:"content"`
	Checksum    string    `json:"checksum"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Stats summarizes the global index footer.
type Stats struct {
	TotalCourses  int    `json:"total_courses"`
	TotalReadings int    `json:"total_readings"`
	LastUpdated   string `json:"last_updated,omitempty"`
}

// Service coordinates library storage, history mining and index documents.
type Service struct {
	store        storage.Provider
	globalPath   string
	historyLimit int
	logger       *slog.Logger
}

// NewService creates a course service reading the global index at
// globalPath.
func NewService(store storage.Provider, globalPath string, historyLimit int, logger *slog.Logger) *Service {
	return &Service{
		store:        store,
		globalPath:   globalPath,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// ListCourses enumerates course folders directly under the library root.
// Directories without a recognizable course code are skipped.
func (s *Service) ListCourses(_ context.Context) ([]CourseInfo, error) {
	entries, err := os.ReadDir(s.store.Root())
	if err != nil {
		return nil, err
	}
	var out []CourseInfo
	for _, de := range entries {
		if !de.IsDir() {
			continue
		}
		code := course.CodeFromName(de.Name())
		if code == "" {
			continue
		}
		info := CourseInfo{Code: code, Name: de.Name(), Folder: de.Name()}
		if metas, err := s.store.List(de.Name()); err == nil {
			info.Summaries = len(metas)
			for _, m := range metas {
				if m.UpdatedAt.After(info.UpdatedAt) {
					info.UpdatedAt = m.UpdatedAt
				}
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// CourseHistory rebuilds the prior-weeks context for a course. An unknown
// course code is apperr.ErrNotFound; a known course with no summaries yet
// returns an empty slice.
func (s *Service) CourseHistory(ctx context.Context, code string) ([]models.HistoryContextRecord, error) {
	folder := course.FindFolder(s.store.Root(), code)
	if folder == "" {
		return nil, apperr.ErrNotFound
	}
	return history.Build(ctx, folder, s.historyLimit, s.logger)
}

// CourseIndex reads and parses the course-tier master document.
func (s *Service) CourseIndex(_ context.Context, code string) (*indexdoc.Document, error) {
	folder := course.FindFolder(s.store.Root(), code)
	if folder == "" {
		return nil, apperr.ErrNotFound
	}
	data, err := os.ReadFile(tracker.CourseMasterPath(folder, course.CodeFromName(filepath.Base(folder))))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return indexdoc.Parse(data, indexdoc.KindCourse)
}

// GlobalIndex reads and parses the global master document.
func (s *Service) GlobalIndex(_ context.Context) (*indexdoc.Document, error) {
	data, err := os.ReadFile(s.globalPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return indexdoc.Parse(data, indexdoc.KindGlobal)
}

// Stats returns the aggregate counters from the global index footer. A
// missing global index reads as all-zero stats, not an error.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	doc, err := s.GlobalIndex(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return &Stats{}, nil
		}
		return nil, err
	}
	return &Stats{
		TotalCourses:  doc.Footer.TotalCourses,
		TotalReadings: doc.Footer.TotalEntries,
		LastUpdated:   doc.Footer.LastUpdated,
	}, nil
}

// GetSummary reads one summary artifact by library-relative path and mines
// its metadata.
func (s *Service) GetSummary(_ context.Context, path string) (*SummaryDetail, error) {
	if !storage.IsSummaryFile(filepath.Base(path)) {
		return nil, apperr.ErrNotFound
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	art, _, err := artifact.Parse(data)
	if err != nil {
		return nil, err
	}

	title := art.Title
	if title == "" {
		base := filepath.Base(path)
		title = base[:len(base)-len(filepath.Ext(base))]
	}
	detail := &SummaryDetail{
		Path:        path,
		Title:       title,
		Author:      art.Author,
		Course:      art.CourseCode,
		Week:        art.Week,
		Thesis:      art.Thesis,
		KeyConcepts: nonNilSlice(art.KeyConcepts),
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		UpdatedAt:   time.Now(),
	}
	if info, err := os.Stat(filepath.Join(s.store.Root(), path)); err == nil {
		detail.UpdatedAt = info.ModTime()
	}
	return detail, nil
}

// ListSummaries returns metadata for every summary under dir (library
// relative; "" means the whole library).
func (s *Service) ListSummaries(_ context.Context, dir string) ([]models.ArtifactMetadata, error) {
	return s.store.List(dir)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
