package modcache_test

import (
	"path/filepath"
	"testing"

	"github.com/emberlang/ember/internal/interp"
	"github.com/emberlang/ember/internal/modcache"
	"github.com/emberlang/ember/internal/types"
)

func TestStoreThenLookupHits(t *testing.T) {
	cache, err := modcache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	it := interp.New(interp.Options{})
	const src = "x = 5; y = 7; x * y + 1"
	mod, err := it.BuildModule("cached", src)
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}

	hash := modcache.Hash(src)
	if err := cache.Store(hash, mod); err != nil {
		t.Fatalf("Store: %v", err)
	}

	restored, found, err := cache.Lookup(hash, it.Builtin)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found {
		t.Fatalf("expected a cache hit for a just-stored hash")
	}

	got, err := it.Machine.Call(restored.Entry, nil)
	if err != nil {
		t.Fatalf("Call on restored module: %v", err)
	}
	if got.Type.Tag != types.Int32 || got.AsInt32() != 36 {
		t.Fatalf("got %#v, want Int32(36)", got)
	}
}

func TestLookupMiss(t *testing.T) {
	cache, err := modcache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	_, found, err := cache.Lookup("does-not-exist", nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found {
		t.Fatalf("expected a miss for an unstored hash")
	}
}

// TestStoreSkipsUnsupportedModule matches bundle.Supported's documented
// limitation: a closure-capturing module silently isn't cached rather than
// erroring (SPEC_FULL.md §4.15).
func TestStoreSkipsUnsupportedModule(t *testing.T) {
	cache, err := modcache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	it := interp.New(interp.Options{})
	const src = "n = 10; adder = fun |x: Int32| -> Int32 { x + n }; adder 5"
	mod, err := it.BuildModule("closure", src)
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}

	hash := modcache.Hash(src)
	if err := cache.Store(hash, mod); err != nil {
		t.Fatalf("Store: %v", err)
	}
	_, found, err := cache.Lookup(hash, it.Builtin)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found {
		t.Fatalf("expected Store to have skipped an unsupported module")
	}
}
