// Package models defines the domain types for Lectio.
package models

import "time"

// SummaryArtifact is the structured metadata mined from a summary document.
// It is derived from the file each time it is read and never cached.
//
// Week is 0 when no week could be determined; valid weeks are positive.
type SummaryArtifact struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	CourseCode  string    `json:"course_code,omitempty"`
	Week        int       `json:"week,omitempty"`
	Thesis      string    `json:"thesis,omitempty"`
	KeyConcepts []string  `json:"key_concepts,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// HistoryContextRecord is the reduced projection of a SummaryArtifact that
// gets injected into a generation prompt. Immutable once built.
type HistoryContextRecord struct {
	Week        int      `json:"week,omitempty"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Thesis      string   `json:"thesis,omitempty"`
	KeyConcepts []string `json:"key_concepts,omitempty"`
}

// SummaryRecord carries the metadata of a freshly generated summary into the
// master index update.
type SummaryRecord struct {
	CourseCode   string
	CourseFolder string
	Week         int
	Title        string
	Author       string
	Thesis       string
	KeyConcepts  []string
	SummaryPath  string
	Date         time.Time
}

// ArtifactMetadata is a lightweight representation returned by list
// operations over the summary library.
type ArtifactMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
