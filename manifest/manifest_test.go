package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/tapevm/pkg/bytecode"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(content), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
}

func TestDefault(t *testing.T) {
	m := Default()
	if m.Engine.TapeSize != bytecode.DefaultTapeSize {
		t.Errorf("Expected default tape size %d, got %d", bytecode.DefaultTapeSize, m.Engine.TapeSize)
	}
	s, err := m.DispatchStrategy()
	if err != nil {
		t.Fatalf("DispatchStrategy failed: %v", err)
	}
	if s != bytecode.StrategySwitch {
		t.Errorf("Expected switch as default strategy, got %v", s)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[engine]
tape_size = 1024
strategy = "closure"
trace = true

[cache]
enabled = true
path = "progs.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Engine.TapeSize != 1024 {
		t.Errorf("Expected tape_size 1024, got %d", m.Engine.TapeSize)
	}
	if !m.Engine.Trace {
		t.Error("Expected trace enabled")
	}
	s, err := m.DispatchStrategy()
	if err != nil {
		t.Fatalf("DispatchStrategy failed: %v", err)
	}
	if s != bytecode.StrategyClosure {
		t.Errorf("Expected closure strategy, got %v", s)
	}
	if !m.Cache.Enabled {
		t.Error("Expected cache enabled")
	}
	want := filepath.Join(m.Dir, "progs.db")
	if m.CachePath() != want {
		t.Errorf("Expected cache path %q, got %q", want, m.CachePath())
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[engine]
strategy = "table"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Engine.TapeSize != bytecode.DefaultTapeSize {
		t.Errorf("Expected default tape size to survive, got %d", m.Engine.TapeSize)
	}
	if m.Engine.Strategy != "table" {
		t.Errorf("Expected table strategy, got %q", m.Engine.Strategy)
	}
}

func TestLoadRejectsBadStrategy(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[engine]
strategy = "computed-goto"
`)

	if _, err := Load(dir); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}

func TestLoadRejectsBadTapeSize(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[engine]
tape_size = -5
`)

	if _, err := Load(dir); err == nil {
		t.Error("Expected error for negative tape size")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[engine]
tape_size = 512
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("Expected to find the manifest in an ancestor directory")
	}
	if m.Engine.TapeSize != 512 {
		t.Errorf("Expected tape_size 512, got %d", m.Engine.TapeSize)
	}
}

func TestFindAndLoadMissing(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m != nil {
		t.Errorf("Expected nil manifest when none exists, got %+v", m)
	}
}
