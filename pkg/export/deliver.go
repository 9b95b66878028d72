// deliver.go - Hands finished archives to a download target.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Saver receives the finished archive. Hosts decide what saving means: a
// file on disk, a browser download, an upload.
type Saver interface {
	Save(name string, data []byte) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(name string, data []byte) error

func (f SaverFunc) Save(name string, data []byte) error { return f(name, data) }

// DirSaver writes archives into Dir, creating it when missing.
type DirSaver struct {
	Dir string
}

func (d DirSaver) Save(name string, data []byte) error {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, filepath.Base(name)), data, 0o644)
}

// Deliver hands a to s. Failures are reported as *ArchiveError.
func Deliver(s Saver, a *Archive) error {
	if a == nil || len(a.Data) == 0 {
		return &ArchiveError{Name: DefaultArchiveName, Err: errors.New("nothing to deliver")}
	}
	if err := s.Save(a.Name, a.Data); err != nil {
		return &ArchiveError{Name: a.Name, Err: fmt.Errorf("save: %w", err)}
	}
	return nil
}
