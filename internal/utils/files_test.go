package utils_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/enrolpulse/internal/utils"
	"github.com/spf13/afero"
)

func TestSafeWriteFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := utils.SafeWriteFile(fs, "/out/nested/a.txt", []byte("hello")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := afero.ReadFile(fs, "/out/nested/a.txt")
	if err != nil || string(b) != "hello" {
		t.Fatalf("read back = %q, %v", b, err)
	}
	if ok, _ := afero.Exists(fs, "/out/nested/a.txt.tmp"); ok {
		t.Fatalf("temp file left behind")
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if !strings.Contains(string(b), "\n  \"a\": 1\n") {
		t.Fatalf("unexpected output: %s", b)
	}
}

func TestFindUp(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/work/enrolpulse.rules.yaml", []byte("aliases: {}\n"), 0o644)
	_ = fs.MkdirAll("/work/data/2025", 0o755)
	_ = afero.WriteFile(fs, "/work/data/2025/a.csv", []byte("x"), 0o644)

	got, err := utils.FindUp(fs, "/work/data/2025/a.csv", "enrolpulse.rules.yaml")
	if err != nil || got != "/work/enrolpulse.rules.yaml" {
		t.Fatalf("FindUp = %q, %v", got, err)
	}
	if _, err := utils.FindUp(fs, "/work/data", "missing.yaml"); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
