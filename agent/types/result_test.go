package types

import "testing"

func TestIsError(t *testing.T) {
	cases := []struct {
		name   string
		result ActionResult
		want   bool
	}{
		{"error tag", ErrorResult("boom"), true},
		{"success false", ToolResult("ok", false), true},
		{"success true", ToolResult("ok", true), false},
		{"final answer", FinalAnswerResult("done"), false},
		{"needs replan", NeedsReplanResult(), false},
		{"content isError true", ToolResult(map[string]any{"isError": true}, true), true},
		{"content successful false", ToolResult(map[string]any{"successful": false}, true), true},
		{"nested result isError", ToolResult(map[string]any{"result": map[string]any{"isError": true}}, true), true},
		{"content clean", ToolResult(map[string]any{"value": 1}, true), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.result.IsError(); got != tc.want {
				t.Fatalf("IsError() = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestIsErrorIdempotent covers P6: IsError is deterministic and stable
// under re-evaluation.
func TestIsErrorIdempotent(t *testing.T) {
	r := ToolResult(map[string]any{"result": map[string]any{"isError": true}}, true)
	first := r.IsError()
	for i := 0; i < 5; i++ {
		if r.IsError() != first {
			t.Fatalf("IsError() not stable across re-evaluation")
		}
	}
}

func TestClampConfidence(t *testing.T) {
	cases := map[float64]float64{
		-1:  0,
		0:   0,
		0.5: 0.5,
		1:   1,
		2:   1,
	}
	for in, want := range cases {
		if got := ClampConfidence(in); got != want {
			t.Fatalf("ClampConfidence(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestNewAgentThoughtDefaultConfidence(t *testing.T) {
	th := NewAgentThought("because", FinalAnswer("ok"), 0, false)
	if th.Confidence != 0.5 {
		t.Fatalf("expected default confidence 0.5, got %v", th.Confidence)
	}
}
