// errors.go - Capture and archive failures.
package export

import (
	"errors"
	"fmt"
)

// ErrNoArtifacts is wrapped by ArchiveError when every tile was skipped.
var ErrNoArtifacts = errors.New("no tiles captured")

// CaptureError reports a tile whose content could not be recorded or
// encoded. It aborts the export.
type CaptureError struct {
	Tile int
	Slot string
	Err  error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture tile %d (%s): %v", e.Tile, e.Slot, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// ArchiveError reports a failure to assemble or deliver the zip.
type ArchiveError struct {
	Name string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Name, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
