package main

import (
	"crypto/sha256"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestHashStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	big := strings.Repeat("x", 3*hashBlockSize+17)
	writeFile(t, fs, "/a.jpg", big)
	writeFile(t, fs, "/b.jpg", big)
	writeFile(t, fs, "/c.jpg", big+"!")

	h := NewHashStore(fs)
	da, err := h.Hash("/a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	db, _ := h.Hash("/b.jpg")
	dc, _ := h.Hash("/c.jpg")

	if da != db {
		t.Error("identical content hashed differently")
	}
	if da == dc {
		t.Error("different content hashed the same")
	}

	if _, dup := h.Claim(da, "/a.jpg"); dup {
		t.Error("first claim reported duplicate")
	}
	first, dup := h.Claim(db, "/b.jpg")
	if !dup || first != "/a.jpg" {
		t.Errorf("Claim = %q, %v, want /a.jpg, true", first, dup)
	}
	if _, dup := h.IsDuplicate(dc); dup {
		t.Error("unseen digest reported duplicate")
	}
	h.Record(dc, "/c.jpg")
	if first, dup := h.IsDuplicate(dc); !dup || first != "/c.jpg" {
		t.Errorf("IsDuplicate = %q, %v, want /c.jpg, true", first, dup)
	}
	if h.Len() != 2 {
		t.Errorf("Len = %d, want 2", h.Len())
	}
}

func TestHashMissingFile(t *testing.T) {
	h := NewHashStore(afero.NewMemMapFs())
	if _, err := h.Hash("/missing.jpg"); err == nil {
		t.Error("expected error for missing file")
	}
}

// recordingReader is an io.Reader that also implements io.WriterTo, and
// remembers the size of every read request
type recordingReader struct {
	r     *strings.Reader
	sizes []int
}

func (r *recordingReader) Read(p []byte) (int, error) {
	r.sizes = append(r.sizes, len(p))
	return r.r.Read(p)
}

func (r *recordingReader) WriteTo(w io.Writer) (int64, error) {
	return 0, errors.New("WriteTo must not be used")
}

func TestHashReaderBlockSize(t *testing.T) {
	content := strings.Repeat("y", 2*hashBlockSize+5)
	r := &recordingReader{r: strings.NewReader(content)}

	d, err := hashReader(r)
	if err != nil {
		t.Fatalf("hashReader: %v", err)
	}
	if d != Digest(sha256.Sum256([]byte(content))) {
		t.Error("digest mismatch")
	}
	if len(r.sizes) < 3 {
		t.Fatalf("reads = %d, want at least 3", len(r.sizes))
	}
	for i, n := range r.sizes {
		if n != hashBlockSize {
			t.Errorf("read %d asked for %d bytes, want %d", i, n, hashBlockSize)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestHashReaderError(t *testing.T) {
	if _, err := hashReader(failingReader{}); err == nil {
		t.Error("expected read error")
	}
}
