package summarize

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/lectio/internal/course"
)

// requiredSections are the five headings every generated summary must carry.
var requiredSections = []string{
	"## I. Syllabus Contextualization",
	"## II. Core Thesis",
	"## III. Critical Tensions",
	"## IV. Cross-Reading Synthesis",
	"## V. Critical Questions",
}

// frontmatter is the metadata header prepended to every saved summary. The
// field order here is the order written to disk.
type frontmatter struct {
	Title          string `yaml:"title"`
	Author         string `yaml:"author,omitempty"`
	Course         string `yaml:"course,omitempty"`
	Week           int    `yaml:"week,omitempty"`
	Date           string `yaml:"date"`
	Source         string `yaml:"source"`
	WeeksOfContext int    `yaml:"weeks_of_context,omitempty"`
}

// Compose wraps the model output in YAML frontmatter so the summary can be
// re-mined later without re-reading the PDF.
func Compose(body string, title, author string, cctx course.Context, sourcePDF string, historyCount int, now time.Time) ([]byte, error) {
	fm := frontmatter{
		Title:          title,
		Author:         author,
		Course:         cctx.CourseCode,
		Week:           cctx.Week,
		Date:           now.Format("2006-01-02"),
		Source:         sourcePDF,
		WeeksOfContext: historyCount,
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("summarize: marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	return []byte(b.String()), nil
}

// ValidateSections reports which of the required summary sections the model
// failed to produce. Missing sections are warnings, not errors: a partially
// structured summary is still worth saving.
func ValidateSections(body string) []string {
	var warnings []string
	for _, heading := range requiredSections {
		if !strings.Contains(body, heading) {
			warnings = append(warnings, "missing section: "+heading)
		}
	}
	return warnings
}
