package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// Entry is a single file placed in an archive.
type Entry struct {
	Filename string
	Modified time.Time
	Data     []byte
}

// Archive packs entries into an in-memory zip file.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		hdr := &zip.FileHeader{Name: entry.Filename, Method: zip.Deflate, Modified: entry.Modified}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", entry.Filename, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", entry.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
