package moim

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("moim", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig returned error: %v", err)
	}
	if cfg.StorePath != "moim.db" {
		t.Fatalf("StorePath = %q, want %q", cfg.StorePath, "moim.db")
	}
	if cfg.SessionPath != "session.db" {
		t.Fatalf("SessionPath = %q, want %q", cfg.SessionPath, "session.db")
	}
}

func TestParseConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("MOIM_STORE_PATH", "/tmp/env.db")

	fs := flag.NewFlagSet("moim", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-store", "/tmp/flag.db"})
	if err != nil {
		t.Fatalf("ParseConfig returned error: %v", err)
	}
	if cfg.StorePath != "/tmp/flag.db" {
		t.Fatalf("StorePath = %q, want the flag override", cfg.StorePath)
	}
}
