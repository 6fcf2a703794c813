// Package storage provides filesystem access to the summary library.
package storage

import "github.com/starford/lectio/internal/models"

// Provider abstracts the course library for services and the watcher.
type Provider interface {
	// List walks dir (relative to the library root) and returns metadata
	// for every summary artifact.
	List(dir string) ([]models.ArtifactMetadata, error)
	// Read returns the raw bytes of a library file.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Root returns the absolute library root path.
	Root() string
}
