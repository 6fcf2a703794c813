package indexdoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The on-disk format is line-oriented Markdown. Round-trip safety holds for
// documents produced by Render: Parse(Render(d)) reproduces d exactly, up to
// footer recomputation.

var (
	courseEntryRe = regexp.MustCompile(`^### Week ([0-9]+|\?|Unknown): (.*)$`)
	globalEntryRe = regexp.MustCompile(`^- Week ([0-9]+|\?|Unknown): \[(.*)\]\((.*)\) - (.*)$`)
	fieldRe       = regexp.MustCompile(`^- \*\*(.+?)\*\*: (.*)$`)
	linkRe        = regexp.MustCompile(`^\[(.*)\]\((.*)\)$`)
)

// noConcepts is rendered when an entry has no mined key concepts.
const noConcepts = "None extracted"

// Render serializes the document to its on-disk Markdown form.
func Render(d *Document) []byte {
	var b strings.Builder

	b.WriteString("# " + d.Title + "\n")
	if d.Intro != "" {
		b.WriteString("\n" + d.Intro + "\n")
	}

	for _, sec := range d.Sections {
		if d.Kind == KindGlobal {
			b.WriteString("\n## " + sec.Course + "\n")
		}
		for _, e := range sec.Entries {
			if d.Kind == KindGlobal {
				fmt.Fprintf(&b, "- Week %s: [%s](%s) - %s\n", weekLabel(e.Week), e.Title, e.Link, e.Author)
				continue
			}
			concepts := noConcepts
			if len(e.Concepts) > 0 {
				concepts = strings.Join(e.Concepts, ", ")
			}
			fmt.Fprintf(&b, "\n### Week %s: %s\n", weekLabel(e.Week), e.Title)
			fmt.Fprintf(&b, "- **Author**: %s\n", e.Author)
			fmt.Fprintf(&b, "- **Core Thesis**: %s\n", e.Thesis)
			fmt.Fprintf(&b, "- **Key Concepts**: %s\n", concepts)
			fmt.Fprintf(&b, "- **Link**: [%s](%s)\n", e.Title, e.Link)
			fmt.Fprintf(&b, "- **Date Generated**: %s\n", e.Date)
		}
	}

	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "*Last Updated*: %s\n", d.Footer.LastUpdated)
	if d.Kind == KindGlobal {
		fmt.Fprintf(&b, "*Total Courses*: %d\n", d.Footer.TotalCourses)
	}
	fmt.Fprintf(&b, "*Total Readings*: %d\n", d.Footer.TotalEntries)

	return []byte(b.String())
}

// Parse deserializes an on-disk index document of the given kind. Parsing is
// tolerant: unrecognized lines are skipped, so a hand-edited file degrades
// instead of failing.
func Parse(data []byte, kind Kind) (*Document, error) {
	d := &Document{Kind: kind}
	var (
		sec      *Section
		entry    *Entry
		inFooter bool
	)

	flushEntry := func() {
		if entry == nil {
			return
		}
		if sec == nil {
			d.Sections = append(d.Sections, Section{Course: entry.Course})
			sec = &d.Sections[len(d.Sections)-1]
		}
		sec.Entries = append(sec.Entries, *entry)
		entry = nil
	}

	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimRight(line, "\r")

		switch {
		case inFooter:
			parseFooterLine(d, trimmed)

		case trimmed == "---":
			flushEntry()
			inFooter = true

		case strings.HasPrefix(trimmed, "### "):
			if kind != KindCourse {
				continue
			}
			if m := courseEntryRe.FindStringSubmatch(trimmed); m != nil {
				flushEntry()
				entry = &Entry{
					Course: courseFromTitle(d.Title),
					Week:   parseWeekLabel(m[1]),
					Title:  m[2],
				}
			}

		case strings.HasPrefix(trimmed, "## "):
			if kind != KindGlobal {
				continue
			}
			flushEntry()
			d.Sections = append(d.Sections, Section{Course: strings.TrimPrefix(trimmed, "## ")})
			sec = &d.Sections[len(d.Sections)-1]

		case strings.HasPrefix(trimmed, "# "):
			if d.Title == "" {
				d.Title = strings.TrimPrefix(trimmed, "# ")
			}

		case kind == KindGlobal && strings.HasPrefix(trimmed, "- Week "):
			if m := globalEntryRe.FindStringSubmatch(trimmed); m != nil && sec != nil {
				sec.Entries = append(sec.Entries, Entry{
					Course: sec.Course,
					Week:   parseWeekLabel(m[1]),
					Title:  m[2],
					Link:   m[3],
					Author: m[4],
				})
			}

		case entry != nil && strings.HasPrefix(trimmed, "- **"):
			if m := fieldRe.FindStringSubmatch(trimmed); m != nil {
				applyField(entry, m[1], m[2])
			}

		case strings.HasPrefix(trimmed, "*") && strings.HasSuffix(trimmed, "*") && d.Intro == "":
			d.Intro = trimmed
		}
	}
	flushEntry()

	return d, nil
}

func applyField(e *Entry, name, value string) {
	switch name {
	case "Author":
		e.Author = value
	case "Core Thesis":
		e.Thesis = value
	case "Key Concepts":
		if value != noConcepts && value != "" {
			e.Concepts = strings.Split(value, ", ")
		}
	case "Link":
		if m := linkRe.FindStringSubmatch(value); m != nil {
			e.Link = m[2]
		} else {
			e.Link = value
		}
	case "Date Generated":
		e.Date = value
	}
}

func parseFooterLine(d *Document, line string) {
	name, value, ok := strings.Cut(line, ": ")
	if !ok {
		return
	}
	switch strings.Trim(name, "*") {
	case "Last Updated":
		d.Footer.LastUpdated = value
	case "Total Readings":
		d.Footer.TotalEntries, _ = strconv.Atoi(value)
	case "Total Courses":
		d.Footer.TotalCourses, _ = strconv.Atoi(value)
	}
}

func weekLabel(week int) string {
	if week <= 0 {
		return "?"
	}
	return strconv.Itoa(week)
}

func parseWeekLabel(label string) int {
	n, err := strconv.Atoi(label)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// courseFromTitle recovers the course code from a course document title of
// the form "CODE - Course Learning History".
func courseFromTitle(title string) string {
	code, _, ok := strings.Cut(title, " - ")
	if !ok {
		return ""
	}
	return code
}
