// Package course detects course context from folder structure and filenames.
package course

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/starford/lectio/internal/artifact"
)

var (
	codeRe   = regexp.MustCompile(`(?i)\b([A-Z]{2,6})\s?(\d{3,4})\b`)
	weekRe   = regexp.MustCompile(`(?i)week[-_\s]?(\d+)`)
	moduleRe = regexp.MustCompile(`(?i)(module|unit|section)[-_\s]?(\d+)`)
)

// Context describes where a reading sits inside a course.
type Context struct {
	CourseCode    string
	CourseName    string
	CourseFolder  string
	Week          int
	Module        string
	OtherReadings []string
}

// Detect walks the PDF's path upward looking for a course code and a week
// marker, honoring any manual overrides. Detection never fails: missing
// course or week just stay empty/zero for the caller to warn about.
func Detect(pdfPath, courseOverride, weekOverride string) Context {
	abs, err := filepath.Abs(pdfPath)
	if err != nil {
		abs = pdfPath
	}

	ctx := Context{}
	if courseOverride != "" {
		ctx.CourseCode = normalizeCode(courseOverride)
		ctx.CourseName = courseOverride
	}
	if weekOverride != "" {
		ctx.Week = artifact.ParseWeek(weekOverride)
	}

	// Walk from the PDF's directory up to the filesystem root.
	dir := filepath.Dir(abs)
	for cur := dir; ; cur = filepath.Dir(cur) {
		name := filepath.Base(cur)

		if ctx.CourseCode == "" {
			if m := codeRe.FindStringSubmatch(name); m != nil {
				ctx.CourseCode = strings.ToUpper(m[1]) + m[2]
				ctx.CourseName = name
				ctx.CourseFolder = cur
			}
		}
		if ctx.Week == 0 {
			if m := weekRe.FindStringSubmatch(name); m != nil {
				ctx.Week = artifact.ParseWeek(m[1])
			}
		}
		if ctx.Module == "" {
			if m := moduleRe.FindStringSubmatch(name); m != nil {
				label := strings.ToLower(m[1])
				ctx.Module = fmt.Sprintf("%s%s %s", strings.ToUpper(label[:1]), label[1:], m[2])
			}
		}

		if ctx.CourseCode != "" && ctx.Week != 0 {
			break
		}
		if filepath.Dir(cur) == cur {
			break
		}
	}

	// A manual course override has no folder yet; look for one by name.
	if ctx.CourseFolder == "" && ctx.CourseCode != "" {
		ctx.CourseFolder = findFolderUpward(dir, ctx.CourseCode)
	}

	// Last resort: treat the grandparent (or parent) of the PDF as the
	// course folder so history lookups still have somewhere to scan.
	if ctx.CourseFolder == "" {
		if parent := filepath.Dir(dir); parent != dir && parent != string(filepath.Separator) {
			ctx.CourseFolder = parent
		} else {
			ctx.CourseFolder = dir
		}
	}

	ctx.OtherReadings = siblingReadings(abs)
	return ctx
}

// FindFolder locates the course folder for code directly under root by
// folder-name match. Returns "" when no folder matches.
func FindFolder(root, code string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}
	upper := strings.ToUpper(normalizeCode(code))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.Contains(strings.ToUpper(strings.ReplaceAll(e.Name(), " ", "")), upper) {
			return filepath.Join(root, e.Name())
		}
	}
	return ""
}

// CodeFromName extracts a normalized course code from a folder name, or "".
func CodeFromName(name string) string {
	m := codeRe.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + m[2]
}

// findFolderUpward walks up from dir looking for a directory whose name
// contains the course code. Bounded to a handful of levels.
func findFolderUpward(dir, code string) string {
	upper := strings.ToUpper(code)
	cur := dir
	for i := 0; i < 5; i++ {
		if strings.Contains(strings.ToUpper(strings.ReplaceAll(filepath.Base(cur), " ", "")), upper) {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return ""
}

// siblingReadings lists other PDFs in the same directory, by stem.
func siblingReadings(pdfPath string) []string {
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(pdfPath), "*.pdf"))
	if err != nil {
		return nil
	}
	var out []string
	for _, m := range matches {
		if m == pdfPath {
			continue
		}
		base := filepath.Base(m)
		out = append(out, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	return out
}

func normalizeCode(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}
