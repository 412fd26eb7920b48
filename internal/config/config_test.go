package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Load(missing) = %+v, want Default()", cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.ListenAddr = "0.0.0.0:9090"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ListenAddr != cfg.ListenAddr {
		t.Fatalf("ListenAddr = %q, want %q", got.ListenAddr, cfg.ListenAddr)
	}
}

func TestValidateRejectsEmptyRecordingsDir(t *testing.T) {
	cfg := Default()
	cfg.RecordingsDir = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty recordings_dir")
	}
}
