package upload

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func multipartFiles(t *testing.T, contents ...string) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i, content := range contents {
		fw, err := w.CreateFormFile("images", "photo"+string(rune('a'+i))+".jpg")
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		fw.Write([]byte(content))
	}
	w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("parsing form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["images"]
}

func publicFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading upload dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names
}

func TestStageCommit(t *testing.T) {
	dir := t.TempDir()
	saver, err := NewSaver(dir)
	if err != nil {
		t.Fatalf("NewSaver: %v", err)
	}

	staged, err := saver.Stage("images", multipartFiles(t, "first", "second"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	names := staged.Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 staged names, got %d", len(names))
	}
	for _, name := range names {
		if !strings.HasPrefix(name, "images-") {
			t.Errorf("expected images-<timestamp> name, got %q", name)
		}
	}
	if names[0] >= names[1] {
		t.Errorf("expected strictly increasing timestamps, got %q then %q", names[0], names[1])
	}

	// Nothing public before commit.
	if got := publicFiles(t, dir); len(got) != 0 {
		t.Fatalf("expected empty upload dir before commit, found %v", got)
	}

	if err := staged.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := publicFiles(t, dir); len(got) != 2 {
		t.Fatalf("expected 2 committed files, found %v", got)
	}

	data, err := os.ReadFile(filepath.Join(dir, names[0]))
	if err != nil {
		t.Fatalf("reading committed file: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("expected first file content in upload order, got %q", data)
	}
}

func TestDiscardLeavesNoOrphans(t *testing.T) {
	dir := t.TempDir()
	saver, err := NewSaver(dir)
	if err != nil {
		t.Fatalf("NewSaver: %v", err)
	}

	staged, err := saver.Stage("images", multipartFiles(t, "rejected"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	staged.Discard()

	if got := publicFiles(t, dir); len(got) != 0 {
		t.Errorf("expected empty upload dir after discard, found %v", got)
	}
	stagingLeft, err := os.ReadDir(filepath.Join(dir, ".staging"))
	if err != nil {
		t.Fatalf("reading staging dir: %v", err)
	}
	if len(stagingLeft) != 0 {
		t.Errorf("expected empty staging dir after discard, found %d files", len(stagingLeft))
	}
}

func TestStageNoFiles(t *testing.T) {
	saver, err := NewSaver(t.TempDir())
	if err != nil {
		t.Fatalf("NewSaver: %v", err)
	}

	staged, err := saver.Stage("images", nil)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if len(staged.Names()) != 0 {
		t.Errorf("expected no names, got %v", staged.Names())
	}
	if err := staged.Commit(); err != nil {
		t.Errorf("Commit with no files: %v", err)
	}
}
