package tracker

import (
	"errors"
	"io/fs"
	"os"

	"github.com/starford/lectio/internal/apperr"
	"github.com/starford/lectio/internal/indexdoc"
	"github.com/starford/lectio/internal/storage"
)

// Apply runs a read-modify-write transaction against the index file at
// path. A missing file is not an error: the transaction starts from
// template() instead. The updated document is written to a temporary file,
// fsynced, and atomically renamed over the target, so an interrupted write
// always leaves the previous valid version behind. The temporary file is
// removed on every failure path.
//
// Genuine I/O failures surface as *apperr.PersistenceError; errors returned
// by transform pass through unchanged.
func Apply(path string, kind indexdoc.Kind, template func() *indexdoc.Document, transform func(*indexdoc.Document) error) error {
	var doc *indexdoc.Document

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		doc, err = indexdoc.Parse(data, kind)
		if err != nil {
			return &apperr.PersistenceError{Path: path, Err: err}
		}
	case errors.Is(err, fs.ErrNotExist):
		doc = template()
	default:
		return &apperr.PersistenceError{Path: path, Err: err}
	}

	if err := transform(doc); err != nil {
		return err
	}

	return writeAtomic(path, indexdoc.Render(doc))
}

// writeAtomic persists an index file, wrapping failures in the index
// persistence error type.
func writeAtomic(path string, content []byte) error {
	if err := storage.WriteFileAtomic(path, content); err != nil {
		return &apperr.PersistenceError{Path: path, Err: err}
	}
	return nil
}
