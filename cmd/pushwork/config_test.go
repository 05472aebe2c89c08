package main

import (
	"testing"

	"github.com/inkandswitch/pushwork/pkg/config"
)

func TestSetConfigKeyParallelism(t *testing.T) {
	cfg := config.Default()
	if err := setConfigKey(cfg, "parallelism", "8"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Parallelism != 8 {
		t.Errorf("parallelism = %d, want 8", cfg.Parallelism)
	}
}

func TestSetConfigKeyRejectsNonNumericParallelism(t *testing.T) {
	cfg := config.Default()
	if err := setConfigKey(cfg, "parallelism", "many"); err == nil {
		t.Fatal("expected an error for a non-numeric parallelism value")
	}
}

func TestSetConfigKeyExcludeSplitsOnComma(t *testing.T) {
	cfg := config.Default()
	if err := setConfigKey(cfg, "exclude", "*.tmp,node_modules,"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"*.tmp", "node_modules"}
	if len(cfg.Exclude) != len(want) {
		t.Fatalf("exclude = %v, want %v", cfg.Exclude, want)
	}
	for i := range want {
		if cfg.Exclude[i] != want[i] {
			t.Errorf("exclude[%d] = %q, want %q", i, cfg.Exclude[i], want[i])
		}
	}
}

func TestSetConfigKeyUnknownKey(t *testing.T) {
	cfg := config.Default()
	if err := setConfigKey(cfg, "bogus", "value"); err == nil {
		t.Fatal("expected an error for an unknown configuration key")
	}
}

func TestGetConfigKeyRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Parallelism = 6
	got, err := getConfigKey(cfg, "parallelism")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "6" {
		t.Errorf("parallelism = %q, want %q", got, "6")
	}
}

func TestGetConfigKeyUnknownKey(t *testing.T) {
	cfg := config.Default()
	if _, err := getConfigKey(cfg, "bogus"); err == nil {
		t.Fatal("expected an error for an unknown configuration key")
	}
}
