package files

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveRejectsTraversal(t *testing.T) {
	base := t.TempDir()

	cases := []string{
		"../etc/passwd",
		"../../secret",
		"a/../../b",
		"..",
		"",
	}
	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Resolve(base, name); !errors.Is(err, ErrOutsideBase) {
				t.Errorf("Resolve(%q) err = %v, want ErrOutsideBase", name, err)
			}
		})
	}
}

func TestResolveStaysInsideBase(t *testing.T) {
	base := t.TempDir()

	got, err := Resolve(base, "reports/export.csv")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(base, "reports", "export.csv")
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}

	// "a/../b" inside the base is fine once cleaned.
	got, err = Resolve(base, "a/../report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(base, "report.pdf") {
		t.Errorf("cleaned path wrong: %q", got)
	}
}

func TestRead(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "plan.json"), []byte(`{"ok":true}`), 0o600); err != nil {
		t.Fatal(err)
	}

	data, ct, err := Read(base, "plan.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("content = %q", data)
	}
	if ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	if _, _, err := Read(base, "missing.pdf"); err == nil {
		t.Error("missing file should error")
	}
	if _, _, err := Read(base, "../plan.json"); !errors.Is(err, ErrOutsideBase) {
		t.Errorf("traversal read err = %v, want ErrOutsideBase", err)
	}
}
