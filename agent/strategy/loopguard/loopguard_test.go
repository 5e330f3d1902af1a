package loopguard

import "testing"

func TestDetectThreeIdentical(t *testing.T) {
	g := New()
	fp := Make("tool_call", "search", map[string]any{"q": "a"})
	g.Record(fp)
	if g.Detect() {
		t.Fatalf("should not trigger after 1 record")
	}
	g.Record(fp)
	if g.Detect() {
		t.Fatalf("should not trigger before iteration 3, even with 2 identical")
	}
	g.Record(fp)
	if !g.Detect() {
		t.Fatalf("expected trigger on three identical at iteration 3")
	}
}

func TestDetectABA(t *testing.T) {
	g := New()
	a := Make("tool_call", "search", map[string]any{"q": "a"})
	b := Make("tool_call", "search", map[string]any{"q": "b"})
	g.Record(a)
	g.Record(b)
	if g.Detect() {
		t.Fatalf("A-B should not trigger")
	}
	g.Record(a)
	if !g.Detect() {
		t.Fatalf("expected A-B-A to trigger")
	}
}

func TestDetectNoFalsePositive(t *testing.T) {
	g := New()
	a := Make("tool_call", "search", map[string]any{"q": "a"})
	b := Make("tool_call", "search", map[string]any{"q": "b"})
	c := Make("tool_call", "search", map[string]any{"q": "c"})
	g.Record(a)
	g.Record(b)
	g.Record(c)
	if g.Detect() {
		t.Fatalf("three distinct fingerprints must not trigger")
	}
}

func TestFingerprintStableUnderKeyOrder(t *testing.T) {
	fp1 := Make("tool_call", "search", map[string]any{"a": 1, "b": 2})
	fp2 := Make("tool_call", "search", map[string]any{"b": 2, "a": 1})
	if fp1 != fp2 {
		t.Fatalf("fingerprint should be stable regardless of map iteration order")
	}
}
