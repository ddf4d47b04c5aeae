package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesConventionalMarkers(t *testing.T) {
	cfg := Default()
	if cfg.CacheRoot == "" {
		t.Error("Default() should always set a cache root")
	}
	m, err := cfg.Markers()
	if err != nil {
		t.Fatalf("Markers: %v", err)
	}
	if !m.Start.MatchString("# styler: off") {
		t.Error("default start marker should match \"# styler: off\"")
	}
	if !m.Stop.MatchString("# styler: on") {
		t.Error("default stop marker should match \"# styler: on\"")
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load of a missing file = %+v, want Default()", cfg)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want Default()", cfg)
	}
}

func TestLoadOverlaysYAMLOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gostyler.yaml")
	body := "cache_root: /tmp/custom-cache\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheRoot != "/tmp/custom-cache" {
		t.Errorf("CacheRoot = %q, want /tmp/custom-cache", cfg.CacheRoot)
	}
	if cfg.IgnoreStart != Default().IgnoreStart {
		t.Error("fields absent from the YAML should keep their default values")
	}
}

func TestMarkersRejectsInvalidRegexp(t *testing.T) {
	cfg := Config{IgnoreStart: "(unterminated", IgnoreStop: `(?i)^#+\s*styler:\s*on\s*$`}
	if _, err := cfg.Markers(); err == nil {
		t.Error("Markers should reject an invalid ignore_start pattern")
	}
}
