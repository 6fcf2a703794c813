// Package artifact extracts structured metadata from summary documents.
//
// Parsing is best-effort by design: a summary with missing frontmatter or
// absent sections still yields an artifact with empty optional fields plus
// soft warnings the caller may log. Only binary or non-UTF-8 content is a
// hard failure, so one damaged historical file can never block a run.
package artifact

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/starford/lectio/internal/apperr"
	"github.com/starford/lectio/internal/models"
)

// MaxKeyConcepts caps the number of key terms mined from one summary.
const MaxKeyConcepts = 7

var (
	// thesisRe matches the "Central Argument" field under the Core Thesis
	// section and captures the first line of its value.
	thesisRe = regexp.MustCompile(`(?is)##\s*II\.\s*Core Thesis.*?[\n\r]+.*?[-*]\s*\*{0,2}Central Argument\*{0,2}:?\s*(.+?)[\n\r]`)

	// keyTermsRe captures the text of the "Key Terms" field up to the next
	// bold field, the next H2 heading, or end of input.
	keyTermsRe = regexp.MustCompile(`(?is)##\s*II\.\s*Core Thesis.*?[\n\r]+.*?[-*]\s*\*{0,2}Key Terms\*{0,2}:?\s*(.+?)(?:[\n\r]\s*[-*]\s*\*{0,2}[A-Z]|\n##\s|\z)`)

	// termRe extracts individual terms written as "term: definition" or
	// "term - definition" from the Key Terms text.
	termRe = regexp.MustCompile(`([a-zA-Z][a-zA-Z\s]+?)(?::|–|-|—)\s*`)

	emphasisRe = regexp.MustCompile(`\*\*|\*|__|_`)
	weekRe     = regexp.MustCompile(`(?i)(?:week[-_\s]?)?(\d+)`)
)

// Parse extracts a SummaryArtifact from raw summary text. The returned
// warnings describe sections that could not be mined; they never accompany
// an error. The only error is apperr.ErrUnreadable for binary content.
//
// Path and the filesystem-derived GeneratedAt fallback are the caller's
// responsibility; Parse is a pure function of the content.
func Parse(data []byte) (*models.SummaryArtifact, []string, error) {
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return nil, nil, fmt.Errorf("artifact: %w", apperr.ErrUnreadable)
	}

	var warnings []string
	content := string(data)

	fm, ok := splitFrontmatter(data)
	if !ok {
		warnings = append(warnings, "no frontmatter found")
	}

	art := &models.SummaryArtifact{
		Title:       stringField(fm, "title"),
		Author:      stringField(fm, "author"),
		CourseCode:  stringField(fm, "course"),
		Week:        weekField(fm),
		GeneratedAt: dateField(fm),
	}

	art.Thesis = extractThesis(content)
	if art.Thesis == "" {
		warnings = append(warnings, "core thesis not found")
	}

	art.KeyConcepts = extractKeyConcepts(content)
	if len(art.KeyConcepts) == 0 {
		warnings = append(warnings, "no key terms found")
	}

	return art, warnings, nil
}

// FrontmatterWeek returns the week number declared in the document's
// frontmatter, or 0. Cheaper than a full Parse when only ordering matters.
func FrontmatterWeek(data []byte) int {
	fm, ok := splitFrontmatter(data)
	if !ok {
		return 0
	}
	return weekField(fm)
}

// splitFrontmatter returns the YAML frontmatter between leading ---
// delimiters, or ok=false when it is absent or invalid. Invalid YAML is
// tolerated the same as no frontmatter at all.
func splitFrontmatter(data []byte) (map[string]interface{}, bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, false
	}

	var fm map[string]interface{}
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil || fm == nil {
		return nil, false
	}
	return fm, true
}

func stringField(fm map[string]interface{}, key string) string {
	if fm == nil {
		return ""
	}
	switch v := fm[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// dateField reads the "date" frontmatter value. yaml.v3 decodes an unquoted
// ISO date as time.Time and a quoted one as string; both forms occur in real
// artifacts, so both are accepted. Returns the zero time when absent or
// unparseable.
func dateField(fm map[string]interface{}) time.Time {
	if fm == nil {
		return time.Time{}
	}
	switch v := fm["date"].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(v)); err == nil {
			return t
		}
	}
	return time.Time{}
}

// weekField reads the "week" frontmatter value, tolerating ints, bare digit
// strings, and "Week N" labels. Returns 0 when absent or unparseable.
func weekField(fm map[string]interface{}) int {
	if fm == nil {
		return 0
	}
	switch v := fm["week"].(type) {
	case int:
		if v > 0 {
			return v
		}
	case string:
		return ParseWeek(v)
	}
	return 0
}

// ParseWeek extracts a positive week number from a free-form label such as
// "3", "Week 3", or "week_03". Returns 0 when none is found.
func ParseWeek(s string) int {
	m := weekRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// extractThesis mines the Central Argument line from the Core Thesis
// section, with Markdown emphasis stripped. Absence yields "".
func extractThesis(content string) string {
	m := thesisRe.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(emphasisRe.ReplaceAllString(m[1], ""))
}

// extractKeyConcepts mines up to MaxKeyConcepts terms from the Key Terms
// field. Terms are the text before a colon or dash in each "term: definition"
// pair; implausibly long matches are discarded.
func extractKeyConcepts(content string) []string {
	m := keyTermsRe.FindStringSubmatch(content)
	if m == nil {
		return nil
	}

	var concepts []string
	for _, t := range termRe.FindAllStringSubmatch(m[1], -1) {
		term := strings.TrimSpace(t[1])
		if term == "" || len(term) >= 50 {
			continue
		}
		concepts = append(concepts, term)
		if len(concepts) == MaxKeyConcepts {
			break
		}
	}
	return concepts
}
