// Package history reconstructs semantic context from prior summary
// artifacts in a course folder.
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/starford/lectio/internal/artifact"
	"github.com/starford/lectio/internal/storage"
)

var weekSegmentRe = regexp.MustCompile(`(?i)week[-_\s]?(\d+)`)

// Located is a candidate prior artifact together with its ordering signals.
type Located struct {
	Path    string
	Week    int // 0 when no week number could be determined
	ModTime time.Time
}

// FindPriorArtifacts recursively enumerates summary artifacts under
// courseFolder and orders them chronologically. The week number is the
// authoritative signal (from the path, then the frontmatter): weeked
// artifacts come first in week order, weekless ones after them. Modification
// time is a best-effort fallback within each group, and lexical path order
// breaks remaining ties so the result is deterministic.
//
// A missing folder or zero matches yields an empty slice, not an error:
// no history is the normal state for week 1.
func FindPriorArtifacts(courseFolder string) ([]Located, error) {
	if courseFolder == "" {
		return nil, nil
	}
	if _, err := os.Stat(courseFolder); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: stat course folder: %w", err)
	}

	var out []Located
	err := filepath.WalkDir(courseFolder, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !storage.IsSummaryFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Located{
			Path:    p,
			Week:    weekOf(courseFolder, p),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("history: scan %s: %w", courseFolder, err)
	}

	// Lexicographic composite key so the comparator is a strict weak
	// ordering: weeked before weekless, then week, then mtime, then path.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Week > 0) != (b.Week > 0) {
			return a.Week > 0
		}
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.Before(b.ModTime)
		}
		return a.Path < b.Path
	})
	return out, nil
}

// weekOf determines the week number for a summary file: first from the path
// segments below the course folder, then from the file's own frontmatter.
func weekOf(courseFolder, path string) int {
	rel, err := filepath.Rel(courseFolder, path)
	if err != nil {
		rel = path
	}
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if m := weekSegmentRe.FindStringSubmatch(seg); m != nil {
			if w := artifact.ParseWeek(m[1]); w > 0 {
				return w
			}
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return artifact.FrontmatterWeek(data)
}
