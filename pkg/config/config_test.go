package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Engine.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", cfg.Engine.Workers)
	}
	if cfg.Engine.LookbackQtr < 1 {
		t.Errorf("LookbackQtr = %d, want >= 1", cfg.Engine.LookbackQtr)
	}
	if cfg.Engine.CatalogPath == "" {
		t.Error("CatalogPath must have a default")
	}
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("TEST_TICKERS", "AAPL, MSFT ,GOOG,,")

	got := getEnvAsSlice("TEST_TICKERS")
	want := []string{"AAPL", "MSFT", "GOOG"}
	if len(got) != len(want) {
		t.Fatalf("getEnvAsSlice = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("getEnvAsSlice[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGetEnvAsSliceUnset(t *testing.T) {
	if got := getEnvAsSlice("TEST_TICKERS_UNSET"); got != nil {
		t.Errorf("getEnvAsSlice = %v, want nil", got)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("ENGINE_WORKERS", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for ENGINE_WORKERS=0")
	}
}
