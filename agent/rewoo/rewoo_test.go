package rewoo

import (
	"context"
	"testing"

	"github.com/agentcore/core/agent/invoker"
	"github.com/agentcore/core/agent/model"
	"github.com/agentcore/core/agent/tools"
	"github.com/agentcore/core/agent/types"
)

type scriptedClient struct {
	responses []string
	calls     int
}

func (c *scriptedClient) Call(ctx context.Context, req model.CallRequest) (model.CallResponse, error) {
	i := c.calls
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	c.calls++
	return model.CallResponse{Content: c.responses[i]}, nil
}

type fakeCaller struct {
	results map[string]any
	errs    map[string]error
	calls   []string
}

func (f *fakeCaller) Invoke(ctx context.Context, toolName string, input map[string]any, opts invoker.Options) (any, error) {
	f.calls = append(f.calls, toolName)
	if err, ok := f.errs[toolName]; ok {
		return nil, err
	}
	return f.results[toolName], nil
}

func newRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	for _, name := range []string{"lookupX", "lookupY"} {
		name := name
		err := reg.Register(tools.ToolDefinition{
			Name:        name,
			Description: "looks things up",
			Execute: func(ctx context.Context, input map[string]any, tc *tools.ToolContext) (any, error) {
				return name + "-result", nil
			},
		})
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	return reg
}

const sketchResponse = `{"sketches":[
	{"id":"s1","query":"what is X","tool":"lookupX","arguments":{"q":"X"}},
	{"id":"s2","query":"what is Y","tool":"lookupY","arguments":{"q":"Y"}},
	{"id":"s3","query":"compare X and Y"}
]}`

const organizeResponse = `{"answer":"X and Y differ in Z","citations":["evidence-s1","evidence-s2"],"confidence":0.8}`

// Concrete scenario 4: topKSketches=3 yields at most 3 distinct-id sketches,
// Work yields the same number of evidence entries, and Organize returns a
// non-empty answer with at least one citation.
func TestExecuteSketchWorkOrganizeScenario4(t *testing.T) {
	client := &scriptedClient{responses: []string{sketchResponse, organizeResponse}}
	registry := newRegistry(t)
	caller := &fakeCaller{results: map[string]any{"lookupX": "X-data", "lookupY": "Y-data"}}

	s := New(client, registry, caller, WithTopKSketches(3))
	execCtx := &types.StrategyExecutionContext{Input: "Compare X and Y"}

	result := s.Execute(context.Background(), execCtx, "")

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Output == "" {
		t.Fatalf("expected non-empty answer")
	}

	var workStep *types.ExecutionStep
	for i := range result.Steps {
		if result.Steps[i].Type == types.StepWork {
			workStep = &result.Steps[i]
		}
	}
	if workStep == nil {
		t.Fatalf("expected a work step")
	}
	evidence := workStep.Result.Content.(map[string]any)["evidence"].([]Evidence)
	if len(evidence) != 3 {
		t.Fatalf("expected 3 evidence entries (one per sketch), got %d", len(evidence))
	}

	citations, _ := result.Metadata["citations"].([]string)
	if len(citations) == 0 {
		t.Fatalf("expected at least one citation")
	}
}

func TestSketchDedupesByID(t *testing.T) {
	dup := `{"sketches":[{"id":"s1","query":"a"},{"id":"s1","query":"b"},{"id":"s2","query":"c"}]}`
	client := &scriptedClient{responses: []string{dup}}
	registry := newRegistry(t)
	s := New(client, registry, &fakeCaller{})

	sketches, err := s.sketch(context.Background(), &types.StrategyExecutionContext{Input: "x"})
	if err != nil {
		t.Fatalf("sketch: %v", err)
	}
	if len(sketches) != 2 {
		t.Fatalf("expected 2 deduped sketches, got %d: %+v", len(sketches), sketches)
	}
}

func TestSketchFailsOnEmptyResponse(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"sketches":[]}`}}
	registry := newRegistry(t)
	s := New(client, registry, &fakeCaller{})

	execCtx := &types.StrategyExecutionContext{Input: "x"}
	result := s.Execute(context.Background(), execCtx, "")

	if result.Success {
		t.Fatalf("expected a fatal failure when no sketches are returned")
	}
	if result.Error == "" {
		t.Fatalf("expected an error message")
	}
	if result.Steps[0].Type != types.StepSketch {
		t.Fatalf("expected the failure recorded against the sketch step, got %+v", result.Steps[0])
	}
}

// Work errors are recorded as evidence, never thrown; the run proceeds to
// Organize regardless.
func TestWorkRecordsToolErrorsAsEvidence(t *testing.T) {
	client := &scriptedClient{responses: []string{sketchResponse, organizeResponse}}
	registry := newRegistry(t)
	caller := &fakeCaller{errs: map[string]error{"lookupX": context.DeadlineExceeded}}

	s := New(client, registry, caller)
	execCtx := &types.StrategyExecutionContext{Input: "Compare X and Y"}

	result := s.Execute(context.Background(), execCtx, "")
	if !result.Success {
		t.Fatalf("expected success despite a failing tool call, got %+v", result)
	}

	var workStep types.ExecutionStep
	for _, step := range result.Steps {
		if step.Type == types.StepWork {
			workStep = step
		}
	}
	evidence := workStep.Result.Content.(map[string]any)["evidence"].([]Evidence)
	var sawError bool
	for _, e := range evidence {
		if e.SketchID == "s1" {
			if e.Error == "" {
				t.Fatalf("expected sketch s1 to carry an error")
			}
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("expected to find sketch s1's evidence entry")
	}
}

// Organize auto-cites the first six evidence ids when requireEvidenceAnchors
// is set and the model returns no citations of its own.
func TestOrganizeAutoCitesWhenAnchorsRequired(t *testing.T) {
	noCitations := `{"answer":"an answer","citations":[],"confidence":0.5}`
	client := &scriptedClient{responses: []string{sketchResponse, noCitations}}
	registry := newRegistry(t)
	caller := &fakeCaller{results: map[string]any{"lookupX": "X-data", "lookupY": "Y-data"}}

	s := New(client, registry, caller, WithRequireEvidenceAnchors(true))
	execCtx := &types.StrategyExecutionContext{Input: "Compare X and Y"}

	result := s.Execute(context.Background(), execCtx, "")
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	citations, _ := result.Metadata["citations"].([]string)
	if len(citations) == 0 {
		t.Fatalf("expected auto-cited evidence ids, got none")
	}
}

type alwaysVerifyOnce struct {
	checked int
}

func (v *alwaysVerifyOnce) Check(ctx context.Context, input string, org Organization, evidence []Evidence) (string, bool) {
	v.checked++
	return "cite every evidence id", v.checked == 1
}

func TestVerifyPassReorganizesOnce(t *testing.T) {
	reorganized := `{"answer":"a verified answer","citations":["evidence-s1"],"confidence":0.9}`
	client := &scriptedClient{responses: []string{sketchResponse, organizeResponse, reorganized}}
	registry := newRegistry(t)
	caller := &fakeCaller{results: map[string]any{"lookupX": "X-data", "lookupY": "Y-data"}}

	verifier := &alwaysVerifyOnce{}
	s := New(client, registry, caller, WithVerifier(verifier), WithMaxVerifyPasses(1))
	execCtx := &types.StrategyExecutionContext{Input: "Compare X and Y"}

	result := s.Execute(context.Background(), execCtx, "")
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Output != "a verified answer" {
		t.Fatalf("expected the verified answer to win, got %q", result.Output)
	}
	if verifier.checked != 1 {
		t.Fatalf("expected exactly one verify check (maxVerifyPasses=1), got %d", verifier.checked)
	}
}
