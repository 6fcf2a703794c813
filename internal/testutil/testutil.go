// Package testutil provides shared test helpers for building course
// libraries with summary fixtures.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/lectio/internal/storage"
)

// TestLibrary creates a temporary course library with a storage.Provider.
func TestLibrary(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// SummaryFixture describes a summary artifact to write for a test.
type SummaryFixture struct {
	Course   string
	Week     int
	Title    string
	Author   string
	Thesis   string
	Concepts []string
	Date     string // YYYY-MM-DD, optional
}

// WriteSummary writes a well-formed summary artifact under dir and returns
// its path. The file follows the canonical five-section layout far enough
// for the artifact parser to mine every field.
func WriteSummary(t *testing.T, dir string, fx SummaryFixture) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", fx.Title)
	fmt.Fprintf(&b, "author: %s\n", fx.Author)
	if fx.Course != "" {
		fmt.Fprintf(&b, "course: %s\n", fx.Course)
	}
	if fx.Week > 0 {
		fmt.Fprintf(&b, "week: %d\n", fx.Week)
	}
	if fx.Date != "" {
		fmt.Fprintf(&b, "date: %s\n", fx.Date)
	}
	b.WriteString("---\n")
	b.WriteString("## I. Syllabus Contextualization (1-2 min read)\n")
	fmt.Fprintf(&b, "- **Course**: %s\n\n", fx.Course)
	b.WriteString("## II. Core Thesis & Architecture (3-4 min read)\n")
	fmt.Fprintf(&b, "- **Central Argument**: %s\n", fx.Thesis)
	if len(fx.Concepts) > 0 {
		var terms []string
		for _, c := range fx.Concepts {
			terms = append(terms, c+": definition")
		}
		fmt.Fprintf(&b, "- **Key Terms**: %s\n", strings.Join(terms, ", "))
	}
	b.WriteString("- **Framework/Method**: Fixture\n\n")
	b.WriteString("## III. Critical Tensions (2 min read)\n- None.\n")

	name := strings.ToLower(strings.ReplaceAll(fx.Title, " ", "_")) + "_summary.md"
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
