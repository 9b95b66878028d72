// archive.go - Zip assembly and reading of export archives.
package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// DefaultArchiveName is the file name the bundle is delivered under.
const DefaultArchiveName = "steam_crop_export.zip"

// Artifact is one captured tile file.
type Artifact struct {
	Name string
	Data []byte
	Size image.Point
}

// Archive is the result of one export run.
type Archive struct {
	ID      uuid.UUID
	Name    string
	Entries []Artifact
	Data    []byte
}

// Entry describes a file stored in an archive.
type Entry struct {
	Name     string
	Size     uint64
	Packed   uint64
	Modified time.Time
}

// assemble zips entries in order. Already compressed formats are stored;
// everything else is deflated.
func assemble(entries []Artifact, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, a := range entries {
		method := zip.Deflate
		switch path.Ext(a.Name) {
		case ".png", ".avi", ".jpg":
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     a.Name,
			Method:   method,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", a.Name, err)
		}
		if _, err := w.Write(a.Data); err != nil {
			return nil, fmt.Errorf("write %s: %w", a.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadArchive lists the files stored in a zip archive.
func ReadArchive(r io.ReaderAt, size int64) ([]Entry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		entries = append(entries, Entry{
			Name:     f.Name,
			Size:     f.UncompressedSize64,
			Packed:   f.CompressedSize64,
			Modified: f.Modified,
		})
	}
	return entries, nil
}

// Open returns the contents of one archived file.
func Open(r io.ReaderAt, size int64, name string) ([]byte, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
