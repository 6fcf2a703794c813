// Package indexdoc models the persisted master index documents.
//
// An index document is the in-memory form of one index tier: the per-course
// learning history or the global master index. All mutation happens on the
// model; the backing file is re-serialized wholesale, which makes upserts
// idempotent by construction instead of relying on in-place text splicing.
package indexdoc

import (
	"sort"
	"time"
)

// Kind selects between the two index tiers.
type Kind int

const (
	// KindCourse is the per-course learning history document.
	KindCourse Kind = iota
	// KindGlobal is the cross-course master index document.
	KindGlobal
)

// DateLayout is the timestamp format used in entries and footers.
const DateLayout = "2006-01-02"

// Entry is one recorded reading, keyed by (Course, Week). Week 0 stands for
// an unknown week and renders as "?".
type Entry struct {
	Course   string   `json:"course"`
	Week     int      `json:"week,omitempty"`
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Thesis   string   `json:"thesis,omitempty"`
	Concepts []string `json:"concepts,omitempty"`
	Link     string   `json:"link"`
	Date     string   `json:"date"`
}

// Section groups the entries of one course. The course document has exactly
// one section; the global document has one per course.
type Section struct {
	Course  string  `json:"course"`
	Entries []Entry `json:"entries"`
}

// Footer is the aggregate-statistics block trailing every index document.
// TotalCourses is only meaningful for the global tier.
type Footer struct {
	LastUpdated  string `json:"last_updated"`
	TotalEntries int    `json:"total_entries"`
	TotalCourses int    `json:"total_courses,omitempty"`
}

// Document is an ordered index document plus its footer.
type Document struct {
	Kind     Kind      `json:"-"`
	Title    string    `json:"title"`
	Intro    string    `json:"intro,omitempty"`
	Sections []Section `json:"sections"`
	Footer   Footer    `json:"footer"`
}

// NewCourse returns the template document for a course tier file.
func NewCourse(courseCode string) *Document {
	return &Document{
		Kind:  KindCourse,
		Title: courseCode + " - Course Learning History",
		Intro: "*This file tracks all readings for " + courseCode + "*",
	}
}

// NewGlobal returns the template document for the global tier file.
func NewGlobal() *Document {
	return &Document{
		Kind:  KindGlobal,
		Title: "Academic Reading Master Index",
		Intro: "*All courses and readings tracked here*",
	}
}

// Upsert inserts e into the section matching its course. An entry with the
// same (course, week) key is replaced in place, preserving its position;
// a new key is inserted in week order (unknown weeks last). New sections
// are inserted in course order.
func (d *Document) Upsert(e Entry) {
	sec := d.section(e.Course)
	if sec == nil {
		sec = d.insertSection(e.Course)
	}

	for i := range sec.Entries {
		if sec.Entries[i].Week == e.Week {
			sec.Entries[i] = e
			return
		}
	}

	pos := len(sec.Entries)
	if e.Week > 0 {
		pos = sort.Search(len(sec.Entries), func(i int) bool {
			w := sec.Entries[i].Week
			return w == 0 || w > e.Week
		})
	}
	sec.Entries = append(sec.Entries, Entry{})
	copy(sec.Entries[pos+1:], sec.Entries[pos:])
	sec.Entries[pos] = e
}

// RecomputeFooter recalculates the aggregate counts and stamps the update
// time. Must be called after every mutation before serialization.
func (d *Document) RecomputeFooter(now time.Time) {
	total := 0
	for _, s := range d.Sections {
		total += len(s.Entries)
	}
	d.Footer.TotalEntries = total
	if d.Kind == KindGlobal {
		d.Footer.TotalCourses = len(d.Sections)
	}
	d.Footer.LastUpdated = now.Format(DateLayout)
}

// TotalEntries counts the entries across all sections.
func (d *Document) TotalEntries() int {
	total := 0
	for _, s := range d.Sections {
		total += len(s.Entries)
	}
	return total
}

func (d *Document) section(course string) *Section {
	for i := range d.Sections {
		if d.Sections[i].Course == course {
			return &d.Sections[i]
		}
	}
	return nil
}

func (d *Document) insertSection(course string) *Section {
	pos := sort.Search(len(d.Sections), func(i int) bool {
		return d.Sections[i].Course > course
	})
	d.Sections = append(d.Sections, Section{})
	copy(d.Sections[pos+1:], d.Sections[pos:])
	d.Sections[pos] = Section{Course: course}
	return &d.Sections[pos]
}
