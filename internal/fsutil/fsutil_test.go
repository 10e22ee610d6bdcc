package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.xml")
	content := []byte("<a/>")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	if want := HashBytes(content); got != want {
		t.Errorf("HashFile() = %q, want %q", got, want)
	}
	if len(got) != 64 {
		t.Errorf("len(HashFile()) = %d, want 64", len(got))
	}
	if HashBytes([]byte("<b/>")) == got {
		t.Error("different content should hash differently")
	}

	if _, err := HashFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("HashFile(missing) error = nil, want error")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xml")

	for _, content := range []string{"first", "second"} {
		if err := WriteFileAtomic(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != content {
			t.Errorf("content = %q, want %q", got, content)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the target", len(entries))
	}

	if err := WriteFileAtomic(filepath.Join(dir, "missing", "x"), nil, 0644); err == nil {
		t.Error("WriteFileAtomic() into a missing directory should fail")
	}
}

func TestIsDirIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if !IsDir(dir) || IsDir(file) || IsDir(filepath.Join(dir, "nope")) {
		t.Error("IsDir() returned wrong results")
	}
	if !IsFile(file) || IsFile(dir) || IsFile(filepath.Join(dir, "nope")) {
		t.Error("IsFile() returned wrong results")
	}
}
