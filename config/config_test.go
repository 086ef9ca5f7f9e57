package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dhamidi/retap/rewrite"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if len(cfg.Roots) != 1 || cfg.Roots[0] != "." {
		t.Errorf("roots: got %v", cfg.Roots)
	}
	if cfg.Pattern != rewrite.DefaultPattern {
		t.Errorf("pattern: got %q", cfg.Pattern)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pattern != rewrite.DefaultPattern {
		t.Errorf("pattern: got %q", cfg.Pattern)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	content := `roots:
  - src/main/java
  - src/test/java
exclude:
  - "generated/*"
pattern: "com.example.Async onDone(..)"
verbosity: 1
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Roots) != 2 || cfg.Roots[0] != "src/main/java" {
		t.Errorf("roots: got %v", cfg.Roots)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "generated/*" {
		t.Errorf("exclude: got %v", cfg.Exclude)
	}
	if cfg.Pattern != "com.example.Async onDone(..)" {
		t.Errorf("pattern: got %q", cfg.Pattern)
	}
	if cfg.Verbosity != 1 {
		t.Errorf("verbosity: got %d", cfg.Verbosity)
	}
}

func TestLoadWalksUp(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("pattern: \"x.Y z(..)\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pattern != "x.Y z(..)" {
		t.Errorf("pattern: got %q", cfg.Pattern)
	}
}

func TestLogVerbosity(t *testing.T) {
	tests := []struct {
		name       string
		configured int
		flags      int
		want       int
	}{
		{"defaults", 0, 0, 0},
		{"flag only", 0, 2, 2},
		{"configured only", 1, 0, 1},
		{"flag adds to configured", 1, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Verbosity = tt.configured
			if got := cfg.LogVerbosity(tt.flags); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("verbosity: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0] != "." {
		t.Errorf("roots: got %v", cfg.Roots)
	}
	if cfg.Pattern != rewrite.DefaultPattern {
		t.Errorf("pattern: got %q", cfg.Pattern)
	}
}
