// Package apperr defines the error taxonomy shared across the application.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing summary, course, or index resource.
	ErrNotFound = errors.New("not found")
	// ErrUnreadable signals artifact content that cannot be treated as text.
	// Missing sections or frontmatter never produce this; only binary or
	// non-UTF-8 input does.
	ErrUnreadable = errors.New("unreadable artifact")
)

// Index tiers, used by MasterUpdateError to name the failed write.
const (
	TierCourse = "course"
	TierGlobal = "global"
)

// PersistenceError reports a genuine I/O failure while writing an index
// file. A missing or freshly created file is never a PersistenceError.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// MasterUpdateError reports which index tier failed during a master update.
// The course tier is written first; when it fails the global tier is not
// attempted, so the caller always knows how far the update got.
type MasterUpdateError struct {
	Tier string
	Path string
	Err  error
}

func (e *MasterUpdateError) Error() string {
	return fmt.Sprintf("update %s master %s: %v", e.Tier, e.Path, e.Err)
}

func (e *MasterUpdateError) Unwrap() error { return e.Err }
