// Package archive bundles named text entries into an in-memory zip, used for
// bulk downloads of saved generation results.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Entry is one file inside the archive.
type Entry struct {
	Name string
	Body []byte
}

// Build writes all entries into a zip and returns its bytes.
func Build(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Body); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
