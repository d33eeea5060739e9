package ioutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "study", "raw", "p1.csv")

	if err := WriteFileAtomic(path, []byte("hello")); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("content = %q, want %q", got, "hello")
	}

	// Overwrite, not duplicate.
	if err := WriteFileAtomic(path, []byte("world")); err != nil {
		t.Fatalf("WriteFileAtomic() overwrite error = %v", err)
	}
	got, _ = os.ReadFile(path)
	if string(got) != "world" {
		t.Errorf("content after overwrite = %q, want %q", got, "world")
	}

	// No staging leftovers next to the output.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".partial-") {
			t.Errorf("staging file %q left behind", e.Name())
		}
	}
}

func TestWriteFileAtomic_EmptyPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p1.csv")

	if err := WriteFileAtomic(path, nil); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("zero-byte payload must still produce a file: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
}

func TestCleanZeroByteFiles(t *testing.T) {
	dir := t.TempDir()

	files := map[string]int{
		"study/raw/empty1.csv":      0,
		"study/raw/full.csv":        10,
		"study/survey/empty2.csv":   0,
		"study/survey/partial.json": 3,
		"top.csv":                   0,
	}
	for name, size := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := CleanZeroByteFiles(dir)
	if err != nil {
		t.Fatalf("CleanZeroByteFiles() error = %v", err)
	}
	if len(deleted) != 3 {
		t.Errorf("deleted %d files, want 3: %v", len(deleted), deleted)
	}

	for name, size := range files {
		path := filepath.Join(dir, name)
		_, err := os.Stat(path)
		if size == 0 && err == nil {
			t.Errorf("%s should have been deleted", name)
		}
		if size > 0 && err != nil {
			t.Errorf("%s should have survived: %v", name, err)
		}
	}

	// Idempotent: second pass deletes nothing.
	deleted, err = CleanZeroByteFiles(dir)
	if err != nil {
		t.Fatalf("second CleanZeroByteFiles() error = %v", err)
	}
	if len(deleted) != 0 {
		t.Errorf("second pass deleted %v, want nothing", deleted)
	}
}

func TestCleanZeroByteFiles_MissingRoot(t *testing.T) {
	deleted, err := CleanZeroByteFiles(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing root should not error, got %v", err)
	}
	if len(deleted) != 0 {
		t.Errorf("deleted = %v, want nothing", deleted)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal-id", "normal-id"},
		{"id:with:colons", "id_with_colons"},
		{"id/with\\slashes", "id_with_slashes"},
		{"id?with*wildcards", "id_with_wildcards"},
		{"trailing dots...", "trailing dots"},
		{"multiple   spaces", "multiple spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeFileName(tt.input); got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestArchiveStudy(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"study-1/raw/p1.csv":    "a,b\n1,2\n",
		"study-1/raw/p2.csv":    "a,b\n3,4\n",
		"study-1/survey/p1.csv": "q,ans\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	dest, err := ArchiveStudy(dir, "study-1")
	if err != nil {
		t.Fatalf("ArchiveStudy() error = %v", err)
	}
	if dest != filepath.Join(dir, "study-1.zip") {
		t.Errorf("dest = %q", dest)
	}

	r, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer r.Close()

	found := make(map[string]bool)
	for _, f := range r.File {
		found[f.Name] = true
	}
	for name := range files {
		want := filepath.ToSlash(name)
		if !found[want] {
			t.Errorf("archive missing entry %q (has %v)", want, found)
		}
	}
}

func TestArchiveStudy_MissingTree(t *testing.T) {
	if _, err := ArchiveStudy(t.TempDir(), "absent"); err == nil {
		t.Fatal("ArchiveStudy() should fail when the study tree does not exist")
	}
}
