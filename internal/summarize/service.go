// Package summarize orchestrates the summary generation workflow: extract,
// detect context, gather history, generate, save, index.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/lectio/internal/artifact"
	"github.com/starford/lectio/internal/course"
	"github.com/starford/lectio/internal/history"
	"github.com/starford/lectio/internal/llm"
	"github.com/starford/lectio/internal/models"
	"github.com/starford/lectio/internal/pdf"
	"github.com/starford/lectio/internal/prompt"
	"github.com/starford/lectio/internal/storage"
)

// Generator produces a summary from a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Recorder upserts a generated summary into the master indexes.
type Recorder interface {
	RecordSummary(rec models.SummaryRecord) error
}

// Options tunes the pipeline.
type Options struct {
	HistoryLimit  int  // max prior summaries fed into the prompt
	EnableHistory bool // include prior-week context
	UpdateMasters bool // record the result in the index tiers
}

// Request describes one summarization run.
type Request struct {
	PDFPath        string
	OutputPath     string // defaults to <pdf stem>_summary.md next to the PDF
	CourseOverride string
	WeekOverride   string
	NoHistory      bool
}

// Result reports what a run produced.
type Result struct {
	OutputPath   string
	Context      course.Context
	HistoryCount int
	Warnings     []string
}

// Service runs the generation pipeline.
type Service struct {
	gen     Generator
	rec     Recorder
	opts    Options
	logger  *slog.Logger
	extract func(path string) (*pdf.Document, error)
	now     func() time.Time
}

// New creates a Service. rec may be nil when master updates are disabled.
func New(gen Generator, rec Recorder, opts Options, logger *slog.Logger) *Service {
	return &Service{
		gen:     gen,
		rec:     rec,
		opts:    opts,
		logger:  logger,
		extract: pdf.Extract,
		now:     time.Now,
	}
}

// Run executes the full pipeline for one PDF and returns the saved summary
// path. Index update failures after a successful save are reported through
// the returned error; the summary file itself is already on disk.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	pdfPath, err := filepath.Abs(req.PDFPath)
	if err != nil {
		pdfPath = req.PDFPath
	}
	s.logger.Info("summarize: starting", slog.String("pdf", pdfPath))

	doc, err := s.extract(pdfPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info("summarize: text extracted",
		slog.Int("pages", doc.PageCount),
		slog.Int("words", doc.WordCount))

	cctx := course.Detect(pdfPath, req.CourseOverride, req.WeekOverride)
	s.logger.Info("summarize: context detected",
		slog.String("course", cctx.CourseCode),
		slog.Int("week", cctx.Week),
		slog.String("folder", cctx.CourseFolder))

	var hist []models.HistoryContextRecord
	if s.opts.EnableHistory && !req.NoHistory && cctx.CourseFolder != "" {
		hist, err = history.Build(ctx, cctx.CourseFolder, s.opts.HistoryLimit, s.logger)
		if err != nil {
			return nil, fmt.Errorf("summarize: build history: %w", err)
		}
		s.logger.Info("summarize: history gathered", slog.Int("summaries", len(hist)))
	} else {
		s.logger.Debug("summarize: history skipped")
	}

	userPrompt := prompt.BuildSummaryPrompt(doc.Text, cctx, hist)
	s.logger.Debug("summarize: prompt built",
		slog.Int("chars", len(userPrompt)),
		slog.Int("est_tokens", llm.EstimateTokens(userPrompt)))

	body, err := s.gen.Generate(ctx, prompt.SystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	warnings := ValidateSections(body)
	for _, w := range warnings {
		s.logger.Warn("summarize: "+w, slog.String("pdf", pdfPath))
	}

	title := doc.Title
	if title == "" {
		title = stem(pdfPath)
	}
	composed, err := Compose(body, title, doc.Author, cctx, pdfPath, len(hist), s.now())
	if err != nil {
		return nil, err
	}

	outPath := req.OutputPath
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(pdfPath), stem(pdfPath)+"_summary.md")
	}
	if err := storage.WriteFileAtomic(outPath, composed); err != nil {
		return nil, fmt.Errorf("summarize: save %s: %w", outPath, err)
	}
	s.logger.Info("summarize: summary saved", slog.String("path", outPath))

	res := &Result{
		OutputPath:   outPath,
		Context:      cctx,
		HistoryCount: len(hist),
		Warnings:     warnings,
	}

	if s.opts.UpdateMasters && s.rec != nil && cctx.CourseCode != "" {
		if err := s.recordMasters(composed, doc, cctx, outPath); err != nil {
			return res, err
		}
		s.logger.Info("summarize: master indexes updated")
	}
	return res, nil
}

// recordMasters mines the saved summary and upserts it into both index
// tiers.
func (s *Service) recordMasters(composed []byte, doc *pdf.Document, cctx course.Context, outPath string) error {
	art, _, err := artifact.Parse(composed)
	if err != nil {
		return fmt.Errorf("summarize: mine saved summary: %w", err)
	}
	title := doc.Title
	if title == "" {
		title = stem(doc.Path)
	}
	return s.rec.RecordSummary(models.SummaryRecord{
		CourseCode:   cctx.CourseCode,
		CourseFolder: cctx.CourseFolder,
		Week:         cctx.Week,
		Title:        title,
		Author:       doc.Author,
		Thesis:       art.Thesis,
		KeyConcepts:  art.KeyConcepts,
		SummaryPath:  outPath,
		Date:         s.now(),
	})
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
