// Package pdf extracts text and document metadata from PDF readings.
package pdf

import (
	"fmt"
	"strings"
	"unicode"

	lpdf "github.com/ledongthuc/pdf"
)

const (
	// maxPages bounds extraction for pathological documents.
	maxPages = 100

	// maxTextSize caps the extracted text at 1MB.
	maxTextSize = 1 << 20
)

// Document is the extracted content of one PDF reading.
type Document struct {
	Path      string
	Title     string
	Author    string
	PageCount int
	WordCount int
	Text      string
}

// Extract opens the PDF at path and pulls its plain text and metadata.
// Pages that fail text extraction are skipped rather than failing the whole
// document; a PDF from which no text at all could be extracted is an error
// because there is nothing to summarize.
func Extract(path string) (*Document, error) {
	f, r, err := lpdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdf: open %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("pdf: %s has no pages", path)
	}
	pages := total
	if pages > maxPages {
		pages = maxPages
	}

	var b strings.Builder
	for n := 1; n <= pages; n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		cleaned := CleanText(text)
		if cleaned == "" {
			continue
		}
		b.WriteString(cleaned)
		b.WriteString("\n\n")
		if b.Len() > maxTextSize {
			break
		}
	}

	text := strings.TrimSpace(b.String())
	if len(text) > maxTextSize {
		text = text[:maxTextSize]
	}
	if text == "" {
		return nil, fmt.Errorf("pdf: no extractable text in %s", path)
	}

	doc := &Document{
		Path:      path,
		PageCount: total,
		WordCount: countWords(text),
		Text:      text,
	}
	doc.Title, doc.Author = infoMetadata(r)
	if doc.Title == "" {
		doc.Title = GuessTitle(text)
	}
	return doc, nil
}

// infoMetadata reads Title and Author from the document Info dictionary.
// Malformed or absent metadata yields empty strings.
func infoMetadata(r *lpdf.Reader) (title, author string) {
	defer func() {
		// The underlying reader panics on some malformed xref tables.
		_ = recover()
	}()
	info := r.Trailer().Key("Info")
	if info.Kind() != lpdf.Dict {
		return "", ""
	}
	if v := info.Key("Title"); v.Kind() == lpdf.String {
		title = strings.TrimSpace(v.Text())
	}
	if v := info.Key("Author"); v.Kind() == lpdf.String {
		author = strings.TrimSpace(v.Text())
	}
	return title, author
}

// GuessTitle picks a plausible document title from the opening lines: the
// first line that looks like prose rather than a header artifact.
func GuessTitle(text string) string {
	for _, line := range strings.SplitN(text, "\n", 10) {
		line = strings.TrimSpace(line)
		if len(line) < 8 || len(line) > 150 {
			continue
		}
		if !strings.ContainsFunc(line, unicode.IsLetter) {
			continue
		}
		return line
	}
	return ""
}

// CleanText strips NULs and collapses runs of spaces while preserving line
// structure.
func CleanText(text string) string {
	var out strings.Builder
	out.Grow(len(text))
	lastSpace := false
	for _, r := range text {
		switch {
		case r == 0:
			continue
		case r == '\n':
			out.WriteRune('\n')
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				out.WriteRune(' ')
				lastSpace = true
			}
		default:
			out.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(out.String())
}

// Excerpt returns at most maxChars of text, broken at a word boundary.
func Excerpt(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	if i := strings.LastIndexByte(cut, ' '); i > maxChars/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
