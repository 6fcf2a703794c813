package history

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/lectio/internal/artifact"
	"github.com/starford/lectio/internal/models"
)

// MaxContextConcepts caps the concepts carried per record into the prompt.
const MaxContextConcepts = 5

// parseWorkers bounds concurrent artifact parses during context building.
const parseWorkers = 4

// Build composes the locator and the artifact parser into an ordered,
// capped list of prompt-ready context records. Artifacts that hard-fail to
// parse are logged and skipped; the cap keeps the most recent maxRecords
// entries. Parses run in parallel but the returned order is deterministic
// regardless of completion order.
func Build(ctx context.Context, courseFolder string, maxRecords int, logger *slog.Logger) ([]models.HistoryContextRecord, error) {
	if maxRecords <= 0 {
		return nil, nil
	}

	located, err := FindPriorArtifacts(courseFolder)
	if err != nil {
		return nil, err
	}
	if len(located) > maxRecords {
		located = located[len(located)-maxRecords:]
	}
	if len(located) == 0 {
		return nil, nil
	}

	// One result slot per input keeps ordering independent of scheduling.
	slots := make([]*models.HistoryContextRecord, len(located))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)
	for i, loc := range located {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			data, readErr := os.ReadFile(loc.Path)
			if readErr != nil {
				logger.Warn("history: read failed",
					slog.String("path", loc.Path),
					slog.String("error", readErr.Error()))
				return nil
			}
			art, warnings, parseErr := artifact.Parse(data)
			if parseErr != nil {
				logger.Warn("history: skipping unreadable artifact",
					slog.String("path", loc.Path),
					slog.String("error", parseErr.Error()))
				return nil
			}
			for _, w := range warnings {
				logger.Debug("history: parse warning",
					slog.String("path", loc.Path),
					slog.String("warning", w))
			}
			slots[i] = toRecord(loc, art)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.HistoryContextRecord, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records, nil
}

// toRecord projects a parsed artifact onto the prompt-injection shape.
func toRecord(loc Located, art *models.SummaryArtifact) *models.HistoryContextRecord {
	week := art.Week
	if week == 0 {
		week = loc.Week
	}
	title := art.Title
	if title == "" {
		base := filepath.Base(loc.Path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	concepts := art.KeyConcepts
	if len(concepts) > MaxContextConcepts {
		concepts = concepts[:MaxContextConcepts]
	}
	return &models.HistoryContextRecord{
		Week:        week,
		Title:       title,
		Author:      art.Author,
		Thesis:      art.Thesis,
		KeyConcepts: concepts,
	}
}
