package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestArchiveKeepsOrderAndContent(t *testing.T) {
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := Archive([]Entry{
		{Filename: "manifest.json", Data: []byte(`{"ok":true}`)},
		{Filename: "", Data: []byte("skipped")},
		{Filename: "assets/01-a.png", Data: []byte("png")},
	}, stamp)
	if err != nil {
		t.Fatalf("Archive error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("got %d files want 2", len(zr.File))
	}
	want := []struct{ name, body string }{
		{"manifest.json", `{"ok":true}`},
		{"assets/01-a.png", "png"},
	}
	for i, f := range zr.File {
		if f.Name != want[i].name {
			t.Fatalf("file %d name %q want %q", i, f.Name, want[i].name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		rc.Close()
		if string(body) != want[i].body {
			t.Fatalf("file %s body %q want %q", f.Name, body, want[i].body)
		}
		if !f.Modified.Equal(stamp) {
			t.Fatalf("file %s modified %v want %v", f.Name, f.Modified, stamp)
		}
	}
}
