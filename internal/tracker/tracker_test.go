package tracker

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/lectio/internal/apperr"
	"github.com/starford/lectio/internal/indexdoc"
	"github.com/starford/lectio/internal/models"
	"github.com/starford/lectio/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTracker(t *testing.T, globalPath string) *Tracker {
	t.Helper()
	tr := New(globalPath, discardLogger())
	tr.now = func() time.Time { return time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC) }
	return tr
}

func record(folder string, week int, title, author, thesis string) models.SummaryRecord {
	return models.SummaryRecord{
		CourseCode:   "PSYCH101",
		CourseFolder: folder,
		Week:         week,
		Title:        title,
		Author:       author,
		Thesis:       thesis,
		KeyConcepts:  []string{"attachment", "secure base"},
		SummaryPath:  filepath.Join(folder, "week"+string(rune('0'+week)), strings.ToLower(title)+"_summary.md"),
		Date:         time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRecordSummary_CreatesBothTiers(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "PSYCH101")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	tr := newTestTracker(t, filepath.Join(root, "global_master.md"))

	if err := tr.RecordSummary(record(folder, 1, "Attachment Theory", "Bowlby", "Early bonds shape later relationships.")); err != nil {
		t.Fatalf("RecordSummary: %v", err)
	}

	courseData, err := os.ReadFile(CourseMasterPath(folder, "PSYCH101"))
	if err != nil {
		t.Fatalf("course master not created: %v", err)
	}
	for _, want := range []string{
		"# PSYCH101 - Course Learning History",
		"### Week 1: Attachment Theory",
		"- **Author**: Bowlby",
		"- **Core Thesis**: Early bonds shape later relationships.",
		"*Total Readings*: 1",
	} {
		if !strings.Contains(string(courseData), want) {
			t.Errorf("course master missing %q:\n%s", want, courseData)
		}
	}

	globalData, err := os.ReadFile(tr.GlobalPath())
	if err != nil {
		t.Fatalf("global master not created: %v", err)
	}
	for _, want := range []string{
		"# Academic Reading Master Index",
		"## PSYCH101",
		"- Week 1: [Attachment Theory](",
		") - Bowlby",
		"*Total Courses*: 1",
	} {
		if !strings.Contains(string(globalData), want) {
			t.Errorf("global master missing %q:\n%s", want, globalData)
		}
	}
}

func TestRecordSummary_Idempotent(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "PSYCH101")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	tr := newTestTracker(t, filepath.Join(root, "global_master.md"))
	rec := record(folder, 1, "Attachment Theory", "Bowlby", "Early bonds shape later relationships.")

	if err := tr.RecordSummary(rec); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(CourseMasterPath(folder, "PSYCH101"))
	if err != nil {
		t.Fatal(err)
	}
	firstGlobal, err := os.ReadFile(tr.GlobalPath())
	if err != nil {
		t.Fatal(err)
	}

	if err := tr.RecordSummary(rec); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(CourseMasterPath(folder, "PSYCH101"))
	secondGlobal, _ := os.ReadFile(tr.GlobalPath())

	if string(first) != string(second) {
		t.Errorf("course master changed on duplicate record:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
	if string(firstGlobal) != string(secondGlobal) {
		t.Errorf("global master changed on duplicate record")
	}

	doc, err := indexdoc.Parse(second, indexdoc.KindCourse)
	if err != nil {
		t.Fatal(err)
	}
	if doc.TotalEntries() != 1 {
		t.Errorf("entries = %d, want 1", doc.TotalEntries())
	}
}

// Exercises the full first-weeks lifecycle: two new readings, then a
// regeneration of the first one replacing its entry in place.
func TestRecordSummary_Lifecycle(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "PSYCH101")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	tr := newTestTracker(t, filepath.Join(root, "global_master.md"))

	steps := []models.SummaryRecord{
		record(folder, 1, "Attachment Theory", "Bowlby", "Early bonds shape later relationships."),
		record(folder, 2, "Behaviorism", "Skinner", "Behavior is shaped by consequences."),
		record(folder, 1, "Attachment Theory", "Bowlby", "Revised: attachment is a biological system."),
	}
	for i, rec := range steps {
		if err := tr.RecordSummary(rec); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	data, err := os.ReadFile(CourseMasterPath(folder, "PSYCH101"))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := indexdoc.Parse(data, indexdoc.KindCourse)
	if err != nil {
		t.Fatal(err)
	}
	if doc.TotalEntries() != 2 {
		t.Fatalf("entries = %d, want 2", doc.TotalEntries())
	}
	entries := doc.Sections[0].Entries
	if entries[0].Week != 1 || entries[1].Week != 2 {
		t.Errorf("week order = %d,%d, want 1,2", entries[0].Week, entries[1].Week)
	}
	if entries[0].Thesis != "Revised: attachment is a biological system." {
		t.Errorf("week 1 thesis not replaced: %q", entries[0].Thesis)
	}
	if !strings.Contains(string(data), "*Total Readings*: 2") {
		t.Errorf("footer count not updated:\n%s", data)
	}

	globalData, err := os.ReadFile(tr.GlobalPath())
	if err != nil {
		t.Fatal(err)
	}
	gdoc, err := indexdoc.Parse(globalData, indexdoc.KindGlobal)
	if err != nil {
		t.Fatal(err)
	}
	if gdoc.TotalEntries() != 2 || gdoc.Footer.TotalCourses != 1 {
		t.Errorf("global entries = %d courses = %d, want 2 and 1", gdoc.TotalEntries(), gdoc.Footer.TotalCourses)
	}
}

func TestRecordSummary_FallbackFields(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "PSYCH101")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	tr := newTestTracker(t, filepath.Join(root, "global_master.md"))

	err := tr.RecordSummary(models.SummaryRecord{
		CourseCode:   "PSYCH101",
		CourseFolder: folder,
		SummaryPath:  filepath.Join(folder, "mystery_summary.md"),
	})
	if err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(CourseMasterPath(folder, "PSYCH101"))
	for _, want := range []string{
		"### Week ?: Untitled",
		"- **Author**: Unknown",
		"- **Core Thesis**: See full summary",
		"- **Date Generated**: 2026-02-08",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("course master missing fallback %q:\n%s", want, data)
		}
	}
}

// The course tier is written first; when it fails the global tier must not
// be touched and the error names the failing tier.
func TestRecordSummary_CourseTierFailure(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "PSYCH101")
	// A directory squatting on the course master path makes the final
	// rename fail regardless of the test uid.
	if err := os.MkdirAll(CourseMasterPath(folder, "PSYCH101"), 0o755); err != nil {
		t.Fatal(err)
	}
	tr := newTestTracker(t, filepath.Join(root, "global_master.md"))

	err := tr.RecordSummary(record(folder, 1, "Attachment Theory", "Bowlby", "Early bonds."))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var mue *apperr.MasterUpdateError
	if !errors.As(err, &mue) {
		t.Fatalf("error type = %T, want *apperr.MasterUpdateError", err)
	}
	if mue.Tier != apperr.TierCourse {
		t.Errorf("tier = %q, want %q", mue.Tier, apperr.TierCourse)
	}
	var pe *apperr.PersistenceError
	if !errors.As(err, &pe) {
		t.Errorf("expected wrapped *apperr.PersistenceError, got %v", err)
	}

	if _, err := os.Stat(tr.GlobalPath()); !os.IsNotExist(err) {
		t.Errorf("global master written despite course tier failure")
	}
}

func TestRebuild_ReconstructsFromDisk(t *testing.T) {
	root, _ := testutil.TestLibrary(t)
	psych := filepath.Join(root, "PSYCH101")
	anth := filepath.Join(root, "ANTH210")

	testutil.WriteSummary(t, filepath.Join(psych, "Week 1"), testutil.SummaryFixture{
		Course: "PSYCH101", Week: 1, Title: "Attachment Theory", Author: "Bowlby",
		Thesis: "Early bonds shape later relationships.", Concepts: []string{"attachment"},
		Date: "2026-02-01",
	})
	week2 := testutil.WriteSummary(t, filepath.Join(psych, "Week 2"), testutil.SummaryFixture{
		Course: "PSYCH101", Week: 2, Title: "Behaviorism", Author: "Skinner",
		Thesis: "Behavior is shaped by consequences.",
		Date:   "2026-02-08",
	})
	testutil.WriteSummary(t, anth, testutil.SummaryFixture{
		Course: "ANTH210", Week: 1, Title: "Rites of Passage", Author: "Turner",
		Thesis: "Liminality structures transitions.",
		Date:   "2026-02-03",
	})

	tr := newTestTracker(t, filepath.Join(root, "global_master.md"))
	if err := tr.Rebuild(root); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	data, err := os.ReadFile(CourseMasterPath(psych, "PSYCH101"))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := indexdoc.Parse(data, indexdoc.KindCourse)
	if err != nil {
		t.Fatal(err)
	}
	if doc.TotalEntries() != 2 {
		t.Fatalf("PSYCH101 entries = %d, want 2", doc.TotalEntries())
	}

	globalData, err := os.ReadFile(tr.GlobalPath())
	if err != nil {
		t.Fatal(err)
	}
	gdoc, err := indexdoc.Parse(globalData, indexdoc.KindGlobal)
	if err != nil {
		t.Fatal(err)
	}
	if gdoc.TotalEntries() != 3 || gdoc.Footer.TotalCourses != 2 {
		t.Fatalf("global entries = %d courses = %d, want 3 and 2", gdoc.TotalEntries(), gdoc.Footer.TotalCourses)
	}
	if gdoc.Sections[0].Course != "ANTH210" || gdoc.Sections[1].Course != "PSYCH101" {
		t.Errorf("section order = %s,%s", gdoc.Sections[0].Course, gdoc.Sections[1].Course)
	}

	// Deleting a summary and rebuilding drops its entries from both tiers.
	if err := os.Remove(week2); err != nil {
		t.Fatal(err)
	}
	if err := tr.Rebuild(root); err != nil {
		t.Fatalf("Rebuild after remove: %v", err)
	}
	data, _ = os.ReadFile(CourseMasterPath(psych, "PSYCH101"))
	if strings.Contains(string(data), "Behaviorism") {
		t.Errorf("removed summary still indexed:\n%s", data)
	}
	globalData, _ = os.ReadFile(tr.GlobalPath())
	gdoc, _ = indexdoc.Parse(globalData, indexdoc.KindGlobal)
	if gdoc.TotalEntries() != 2 {
		t.Errorf("global entries after rebuild = %d, want 2", gdoc.TotalEntries())
	}
}

func TestRebuild_SkipsUnreadableArtifacts(t *testing.T) {
	root, _ := testutil.TestLibrary(t)
	psych := filepath.Join(root, "PSYCH101")
	testutil.WriteSummary(t, psych, testutil.SummaryFixture{
		Course: "PSYCH101", Week: 1, Title: "Attachment Theory", Author: "Bowlby",
		Thesis: "Early bonds.", Date: "2026-02-01",
	})
	if err := os.WriteFile(filepath.Join(psych, "corrupt_summary.md"), []byte{0x00, 0xff, 0xfe}, 0o644); err != nil {
		t.Fatal(err)
	}

	tr := newTestTracker(t, filepath.Join(root, "global_master.md"))
	if err := tr.Rebuild(root); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	data, _ := os.ReadFile(CourseMasterPath(psych, "PSYCH101"))
	doc, err := indexdoc.Parse(data, indexdoc.KindCourse)
	if err != nil {
		t.Fatal(err)
	}
	if doc.TotalEntries() != 1 {
		t.Errorf("entries = %d, want 1", doc.TotalEntries())
	}
}
