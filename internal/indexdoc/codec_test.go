package indexdoc

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRoundTrip_CourseDocument(t *testing.T) {
	d := NewCourse("PSYCH101")
	d.Upsert(Entry{
		Course:   "PSYCH101",
		Week:     1,
		Title:    "Attachment Theory",
		Author:   "Bowlby",
		Thesis:   "Early bonds shape later relationships.",
		Concepts: []string{"attachment", "secure base"},
		Link:     "week1/attachment_summary.md",
		Date:     "2026-02-01",
	})
	d.Upsert(Entry{
		Course: "PSYCH101",
		Week:   2,
		Title:  "Behaviorism",
		Author: "Skinner",
		Thesis: "See full summary",
		Link:   "week2/behaviorism_summary.md",
		Date:   "2026-02-08",
	})
	d.RecomputeFooter(time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC))

	got, err := Parse(Render(d), KindCourse)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(got, d) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, d)
	}
}

func TestRoundTrip_GlobalDocument(t *testing.T) {
	d := NewGlobal()
	d.Upsert(Entry{Course: "ANTH210", Week: 1, Title: "Rites", Link: "/lib/ANTH210/rites_summary.md", Author: "Turner"})
	d.Upsert(Entry{Course: "PSYCH101", Week: 1, Title: "Attachment", Link: "/lib/PSYCH101/attachment_summary.md", Author: "Bowlby"})
	d.Upsert(Entry{Course: "PSYCH101", Week: 2, Title: "Behaviorism", Link: "/lib/PSYCH101/behaviorism_summary.md", Author: "Skinner"})
	d.RecomputeFooter(time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC))

	got, err := Parse(Render(d), KindGlobal)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(got, d) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, d)
	}
}

func TestRoundTrip_EmptyDocument(t *testing.T) {
	d := NewCourse("HIST220")
	d.RecomputeFooter(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	got, err := Parse(Render(d), KindCourse)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(got, d) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, d)
	}
}

func TestRender_CourseFormat(t *testing.T) {
	d := NewCourse("PSYCH101")
	d.Upsert(Entry{
		Course: "PSYCH101", Week: 3, Title: "Memory",
		Author: "Ebbinghaus", Thesis: "Forgetting follows a curve.",
		Concepts: []string{"forgetting curve"},
		Link:     "week3/memory_summary.md", Date: "2026-02-15",
	})
	d.RecomputeFooter(time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))

	out := string(Render(d))
	for _, want := range []string{
		"# PSYCH101 - Course Learning History",
		"*This file tracks all readings for PSYCH101*",
		"### Week 3: Memory",
		"- **Author**: Ebbinghaus",
		"- **Core Thesis**: Forgetting follows a curve.",
		"- **Key Concepts**: forgetting curve",
		"- **Link**: [Memory](week3/memory_summary.md)",
		"- **Date Generated**: 2026-02-15",
		"\n---\n*Last Updated*: 2026-02-15\n*Total Readings*: 1\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered document missing %q:\n%s", want, out)
		}
	}
}

func TestRender_UnknownWeekLabel(t *testing.T) {
	d := NewCourse("PSYCH101")
	d.Upsert(Entry{Course: "PSYCH101", Week: 0, Title: "Undated", Author: "A", Thesis: "t", Link: "l", Date: "2026-01-01"})
	out := string(Render(d))
	if !strings.Contains(out, "### Week ?: Undated") {
		t.Errorf("expected ? label for unknown week:\n%s", out)
	}

	got, _ := Parse([]byte(out), KindCourse)
	if got.Sections[0].Entries[0].Week != 0 {
		t.Errorf("parsed week = %d, want 0", got.Sections[0].Entries[0].Week)
	}
}

func TestParse_ToleratesUnknownLines(t *testing.T) {
	raw := "# PSYCH101 - Course Learning History\n\nsome stray prose\n\n### Week 1: Reading\n- **Author**: A\n- weird bullet\n- **Date Generated**: 2026-01-01\n\n---\n*Last Updated*: 2026-01-01\n*Total Readings*: 1\n"
	d, err := Parse([]byte(raw), KindCourse)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.TotalEntries() != 1 {
		t.Errorf("entries = %d, want 1", d.TotalEntries())
	}
	if d.Sections[0].Entries[0].Author != "A" {
		t.Errorf("author = %q", d.Sections[0].Entries[0].Author)
	}
}
