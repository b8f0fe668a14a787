package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("package q\n\n"+body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLintAcceptsMarkedQueries(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "const QA = `--sql 11111111-2222-3333-4444-555555555555\nSELECT 1`\n")
	writeGo(t, dir, "b.go", "const QB = `--sql 66666666-2222-3333-4444-555555555555\nCREATE TABLE t (id text)`\n\nconst label = \"not sql\"\n")

	vs, err := lintPaths([]string{dir})
	if err != nil {
		t.Fatalf("lintPaths error: %v", err)
	}
	if len(vs) != 0 {
		t.Fatalf("unexpected violations %+v", vs)
	}
}

func TestLintReportsMissingMarker(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "const QA = `UPDATE campaigns SET name = $1`\n")

	vs, err := lintPaths([]string{dir})
	if err != nil {
		t.Fatalf("lintPaths error: %v", err)
	}
	if len(vs) != 1 || vs[0].name != "QA" || !strings.Contains(vs[0].message, "missing") {
		t.Fatalf("unexpected violations %+v", vs)
	}
}

func TestLintReportsDuplicateMarkerAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	marker := "--sql 11111111-2222-3333-4444-555555555555"
	writeGo(t, dir, "a.go", "const QA = `"+marker+"\nSELECT 1`\n")
	writeGo(t, dir, "b.go", "const QB = `"+marker+"\nSELECT 2`\n")

	var out bytes.Buffer
	if code := run([]string{dir}, &out); code != 1 {
		t.Fatalf("got exit %d want 1", code)
	}
	if !strings.Contains(out.String(), "duplicate marker, first used by QA") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestLintSkipsTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a_test.go", "const QA = `SELECT 1`\n")

	vs, err := lintPaths([]string{dir})
	if err != nil || len(vs) != 0 {
		t.Fatalf("got %v %+v", err, vs)
	}
}
