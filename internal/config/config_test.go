package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("got %#v, want Default()", cfg)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ember.yaml")
	const doc = "search_paths:\n  - ./lib\n  - ./vendor\nstrict_types: true\ncache_dir: /tmp/ember-cache\noptimize: true\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.StrictTypes || !cfg.Optimize {
		t.Errorf("got %#v, want StrictTypes and Optimize true", cfg)
	}
	if cfg.CacheDir != "/tmp/ember-cache" {
		t.Errorf("got CacheDir %q, want /tmp/ember-cache", cfg.CacheDir)
	}
	if len(cfg.SearchPaths) != 2 || cfg.SearchPaths[0] != "./lib" || cfg.SearchPaths[1] != "./vendor" {
		t.Errorf("got SearchPaths %v, want [./lib ./vendor]", cfg.SearchPaths)
	}
}
