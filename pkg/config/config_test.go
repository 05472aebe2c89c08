package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected default configuration to be valid: %v", err)
	}
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := Default()
	cfg.Move.Auto = 0.3
	cfg.Move.Prompt = 0.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for auto threshold below prompt threshold")
	}
}

func TestValidateRejectsInvalidExcludePattern(t *testing.T) {
	cfg := Default()
	cfg.Exclude = []string{""}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid exclude pattern")
	}
}

func TestValidateRejectsNonPositiveParallelism(t *testing.T) {
	cfg := Default()
	cfg.Parallelism = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive parallelism")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	cfg := Default()
	cfg.Exclude = []string{"*.log", "build/"}
	cfg.ArtifactDirectories = []string{"dist"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("unable to save config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unable to load config: %v", err)
	}
	if len(loaded.Exclude) != 2 || loaded.Exclude[0] != "*.log" {
		t.Fatalf("expected exclude patterns to round-trip, got %v", loaded.Exclude)
	}
	if !loaded.IsArtifactPath("dist/bundle.js") {
		t.Fatal("expected dist/bundle.js to be recognized as an artifact path")
	}
	if loaded.IsArtifactPath("src/main.go") {
		t.Fatal("expected src/main.go not to be recognized as an artifact path")
	}
}
