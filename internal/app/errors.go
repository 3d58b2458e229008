package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidDeleteMode = errors.New("invalid delete mode")
	ErrUnknownFormat     = errors.New("unknown snapshot format")
	ErrSnapshotVersion   = errors.New("unsupported snapshot version")
	ErrNothingSelected   = errors.New("no tasks selected")
	ErrNoDropTarget      = errors.New("drop does not resolve to a task group")
	ErrInvalidExportSize = errors.New("invalid export size")
)
