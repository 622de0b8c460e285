package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test REPL defaults
	if cfg.Repl.Prompt != "> " {
		t.Errorf("Expected Prompt=\"> \", got %q", cfg.Repl.Prompt)
	}
	if cfg.Repl.HistorySize != 1000 {
		t.Errorf("Expected HistorySize=1000, got %d", cfg.Repl.HistorySize)
	}
	if cfg.Repl.StartupFile != "test.funk" {
		t.Errorf("Expected StartupFile=test.funk, got %s", cfg.Repl.StartupFile)
	}
	if !cfg.Repl.ShowStack {
		t.Error("Expected ShowStack=true")
	}

	// Test display defaults
	if !cfg.Display.ColorOutput {
		t.Error("Expected ColorOutput=true")
	}

	// Test dump defaults
	if cfg.Dump.BytecodeFile != "bytecode.txt" {
		t.Errorf("Expected BytecodeFile=bytecode.txt, got %s", cfg.Dump.BytecodeFile)
	}
	if cfg.Dump.EmitO65 {
		t.Error("Expected EmitO65=false")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	// Verify path is not empty
	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}

	// Verify path ends with config.toml
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path ending in config.toml, got %s", path)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Missing config file should fall back to defaults: %v", err)
	}
	if cfg.Repl.Prompt != "> " {
		t.Errorf("Expected default prompt, got %q", cfg.Repl.Prompt)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[repl]
prompt = "funk> "
history_size = 50
startup_file = "boot.funk"

[dump]
bytecode_file = "out.txt"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Repl.Prompt != "funk> " {
		t.Errorf("Expected prompt override, got %q", cfg.Repl.Prompt)
	}
	if cfg.Repl.HistorySize != 50 {
		t.Errorf("Expected history_size=50, got %d", cfg.Repl.HistorySize)
	}
	if cfg.Repl.StartupFile != "boot.funk" {
		t.Errorf("Expected startup override, got %s", cfg.Repl.StartupFile)
	}
	if cfg.Dump.BytecodeFile != "out.txt" {
		t.Errorf("Expected bytecode_file override, got %s", cfg.Dump.BytecodeFile)
	}
}

func TestLoadFromBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("Expected error for invalid TOML")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := DefaultConfig()
	cfg.Repl.Prompt = ":: "
	cfg.Dump.EmitO65 = true

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Repl.Prompt != ":: " {
		t.Errorf("Expected saved prompt, got %q", loaded.Repl.Prompt)
	}
	if !loaded.Dump.EmitO65 {
		t.Error("Expected saved EmitO65=true")
	}
}
