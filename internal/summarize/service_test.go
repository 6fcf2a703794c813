package summarize

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/lectio/internal/models"
	"github.com/starford/lectio/internal/pdf"
	"github.com/starford/lectio/internal/testutil"
)

const generatedBody = `## I. Syllabus Contextualization (1-2 min read)
- **Course**: PSYCH101

## II. Core Thesis & Architecture (3-4 min read)
- **Central Argument**: Early bonds shape later relationships.
- **Key Terms**: attachment: a lasting bond, secure base: safe point of exploration
- **Framework/Method**: Ethological observation

## III. Critical Tensions (2 min read)
- None.

## IV. Cross-Reading Synthesis (3-4 min read)
- None.

## V. Critical Questions (1-2 min read)
- What if?
`

type stubGenerator struct {
	body       string
	err        error
	lastPrompt string
}

func (g *stubGenerator) Generate(_ context.Context, _, userPrompt string) (string, error) {
	g.lastPrompt = userPrompt
	return g.body, g.err
}

type stubRecorder struct {
	recs []models.SummaryRecord
	err  error
}

func (r *stubRecorder) RecordSummary(rec models.SummaryRecord) error {
	r.recs = append(r.recs, rec)
	return r.err
}

func newService(gen Generator, rec Recorder, opts Options) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(gen, rec, opts, logger)
	s.extract = func(path string) (*pdf.Document, error) {
		return &pdf.Document{
			Path:      path,
			Title:     "Attachment and Loss",
			Author:    "John Bowlby",
			PageCount: 12,
			WordCount: 4000,
			Text:      "The nature of the child's tie to his mother.",
		}, nil
	}
	s.now = func() time.Time { return time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC) }
	return s
}

func writePDF(t *testing.T, dir string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "reading.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_FullPipeline(t *testing.T) {
	root := t.TempDir()
	pdfPath := writePDF(t, filepath.Join(root, "PSYCH101", "Week 1"))

	gen := &stubGenerator{body: generatedBody}
	rec := &stubRecorder{}
	svc := newService(gen, rec, Options{HistoryLimit: 10, EnableHistory: true, UpdateMasters: true})

	res, err := svc.Run(context.Background(), Request{PDFPath: pdfPath})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantOut := filepath.Join(filepath.Dir(pdfPath), "reading_summary.md")
	if res.OutputPath != wantOut {
		t.Errorf("output path = %q, want %q", res.OutputPath, wantOut)
	}
	data, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("summary not saved: %v", err)
	}
	for _, want := range []string{
		"title: Attachment and Loss",
		"author: John Bowlby",
		"course: PSYCH101",
		"week: 1",
		"date: \"2026-02-08\"",
		"## II. Core Thesis & Architecture",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("saved summary missing %q:\n%s", want, data)
		}
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", res.Warnings)
	}

	if len(rec.recs) != 1 {
		t.Fatalf("recorded %d summaries, want 1", len(rec.recs))
	}
	got := rec.recs[0]
	if got.CourseCode != "PSYCH101" || got.Week != 1 {
		t.Errorf("record course/week = %s/%d", got.CourseCode, got.Week)
	}
	if got.Thesis != "Early bonds shape later relationships." {
		t.Errorf("mined thesis = %q", got.Thesis)
	}
	if len(got.KeyConcepts) != 2 || got.KeyConcepts[0] != "attachment" {
		t.Errorf("mined concepts = %v", got.KeyConcepts)
	}
	if got.SummaryPath != wantOut {
		t.Errorf("record path = %q", got.SummaryPath)
	}
}

func TestRun_IncludesHistoryInPrompt(t *testing.T) {
	root := t.TempDir()
	courseDir := filepath.Join(root, "PSYCH101")
	testutil.WriteSummary(t, filepath.Join(courseDir, "Week 1"), testutil.SummaryFixture{
		Course: "PSYCH101", Week: 1, Title: "Attachment Theory", Author: "Bowlby",
		Thesis: "Early bonds shape later relationships.", Concepts: []string{"attachment"},
	})
	pdfPath := writePDF(t, filepath.Join(courseDir, "Week 2"))

	gen := &stubGenerator{body: generatedBody}
	svc := newService(gen, &stubRecorder{}, Options{HistoryLimit: 10, EnableHistory: true})

	res, err := svc.Run(context.Background(), Request{PDFPath: pdfPath})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.HistoryCount != 1 {
		t.Errorf("history count = %d, want 1", res.HistoryCount)
	}
	if !strings.Contains(gen.lastPrompt, "PREVIOUS WEEKS' LEARNING") {
		t.Error("prompt missing history section")
	}
	if !strings.Contains(gen.lastPrompt, "Attachment Theory") {
		t.Error("prompt missing prior reading title")
	}
}

func TestRun_NoHistoryFlag(t *testing.T) {
	root := t.TempDir()
	courseDir := filepath.Join(root, "PSYCH101")
	testutil.WriteSummary(t, filepath.Join(courseDir, "Week 1"), testutil.SummaryFixture{
		Course: "PSYCH101", Week: 1, Title: "Attachment Theory", Author: "Bowlby",
		Thesis: "Early bonds.",
	})
	pdfPath := writePDF(t, filepath.Join(courseDir, "Week 2"))

	gen := &stubGenerator{body: generatedBody}
	svc := newService(gen, &stubRecorder{}, Options{HistoryLimit: 10, EnableHistory: true})

	res, err := svc.Run(context.Background(), Request{PDFPath: pdfPath, NoHistory: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.HistoryCount != 0 {
		t.Errorf("history count = %d, want 0", res.HistoryCount)
	}
	if strings.Contains(gen.lastPrompt, "PREVIOUS WEEKS' LEARNING") {
		t.Error("prompt unexpectedly contains history")
	}
}

func TestRun_WarnsOnMissingSections(t *testing.T) {
	root := t.TempDir()
	pdfPath := writePDF(t, filepath.Join(root, "PSYCH101", "Week 1"))

	gen := &stubGenerator{body: "## II. Core Thesis & Architecture\n- **Central Argument**: x.\n"}
	svc := newService(gen, &stubRecorder{}, Options{})

	res, err := svc.Run(context.Background(), Request{PDFPath: pdfPath})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Warnings) != 4 {
		t.Errorf("warnings = %v, want 4 missing sections", res.Warnings)
	}
}

func TestRun_OutputPathOverride(t *testing.T) {
	root := t.TempDir()
	pdfPath := writePDF(t, filepath.Join(root, "PSYCH101", "Week 1"))
	custom := filepath.Join(root, "elsewhere", "custom_summary.md")

	svc := newService(&stubGenerator{body: generatedBody}, &stubRecorder{}, Options{})
	res, err := svc.Run(context.Background(), Request{PDFPath: pdfPath, OutputPath: custom})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.OutputPath != custom {
		t.Errorf("output path = %q", res.OutputPath)
	}
	if _, err := os.Stat(custom); err != nil {
		t.Errorf("custom output not written: %v", err)
	}
}
