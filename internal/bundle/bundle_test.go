package bundle_test

import (
	"testing"

	"github.com/emberlang/ember/internal/bundle"
	"github.com/emberlang/ember/internal/interp"
	"github.com/emberlang/ember/internal/types"
)

// TestRoundTripSimpleModule builds a closure-free module through the real
// pipeline, bundles it, and checks the reconstructed Module evaluates the
// same as the original (SPEC_FULL.md §4.15's "replay on a cache hit").
func TestRoundTripSimpleModule(t *testing.T) {
	it := interp.New(interp.Options{})
	mod, err := it.BuildModule("roundtrip", "x = 5; y = 7; x * y + 1")
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	if !bundle.Supported(mod) {
		t.Fatalf("expected a closure-free arithmetic module to be Supported")
	}

	b, ok := bundle.FromModule(mod)
	if !ok {
		t.Fatalf("FromModule reported unsupported for a Supported module")
	}
	data, err := b.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	b2, err := bundle.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	restored, ok := b2.ToModule(it.Builtin)
	if !ok {
		t.Fatalf("ToModule failed on a round-tripped bundle")
	}

	got, err := it.Machine.Call(restored.Entry, nil)
	if err != nil {
		t.Fatalf("Call on restored module: %v", err)
	}
	if got.Type.Tag != types.Int32 || got.AsInt32() != 36 {
		t.Fatalf("got %#v, want Int32(36)", got)
	}
}

// TestSupportedRejectsClosures matches the package doc's documented
// limitation: a module that captures a non-local can't round-trip through
// this bundle format, so Supported must say so up front.
func TestSupportedRejectsClosures(t *testing.T) {
	it := interp.New(interp.Options{})
	mod, err := it.BuildModule("closure", "n = 10; adder = fun |x: Int32| -> Int32 { x + n }; adder 5")
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	if bundle.Supported(mod) {
		t.Fatalf("expected a closure-capturing module to be unsupported")
	}
	if _, ok := bundle.FromModule(mod); ok {
		t.Fatalf("FromModule should refuse an unsupported module")
	}
}
