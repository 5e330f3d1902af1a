// Package model defines the language-model adapter contract the core
// consumes (§6.1). The adapter itself — which provider, which API, how
// credentials are obtained — is out of scope (§1); the core only depends on
// this interface and detects optional capabilities at construction.
package model

import "context"

type (
	// Message is one turn in a conversation passed to the model.
	Message struct {
		Role    string
		Content string
	}

	// CallRequest is the input to a raw completion call.
	CallRequest struct {
		Messages    []Message
		Temperature float64
		MaxTokens   int
	}

	// CallResponse is the output of a raw completion call.
	CallResponse struct {
		Content string
	}

	// StructuredRequest asks a capable adapter to decode its completion
	// directly into a value matching Schema.
	StructuredRequest struct {
		Messages    []Message
		Schema      []byte
		Temperature float64
	}

	// PlanStep is a single step proposed by an adapter's optional planner
	// capability (CreatePlan).
	PlanStep struct {
		ID          string
		Description string
		Tool        string
		Arguments   map[string]any
		Type        string
	}

	// Plan is the output of an adapter's optional CreatePlan capability.
	Plan struct {
		Reasoning string
		Steps     []PlanStep
		Signals   map[string]any
	}

	// Provider identifies the adapter's backing provider.
	Provider struct {
		Name string
	}

	// Client is the minimal adapter contract every strategy can rely on.
	Client interface {
		// Call performs a raw completion.
		Call(ctx context.Context, req CallRequest) (CallResponse, error)
	}

	// StructuredGenerator is an optional capability: adapters that can
	// decode their own completion against a schema implement this (§6.1).
	// The strategies in this module do not call GenerateStructured; they
	// always parse a plain Call completion.
	StructuredGenerator interface {
		// SupportsStructuredGeneration reports whether GenerateStructured
		// is safe to call for this adapter instance.
		SupportsStructuredGeneration() bool
		// GenerateStructured produces a JSON document matching req.Schema,
		// returned as raw bytes for the caller to unmarshal into T.
		GenerateStructured(ctx context.Context, req StructuredRequest) ([]byte, error)
	}

	// Planner is an optional capability: adapters that can produce a
	// multi-step plan directly implement this (§6.1, §9 fallback order).
	Planner interface {
		CreatePlan(ctx context.Context, input string, strategyName string, options map[string]any) (Plan, error)
	}

	// TechniqueLister is an optional capability exposing the adapter's
	// supported reasoning techniques.
	TechniqueLister interface {
		GetAvailableTechniques(ctx context.Context) ([]string, error)
	}

	// ProviderIdentifier is an optional capability exposing provider
	// identity for telemetry/routing.
	ProviderIdentifier interface {
		GetProvider() Provider
	}
)

// Capabilities summarizes which optional interfaces an adapter instance
// implements, detected once at construction per §6.1 ("The core detects
// capabilities at construction").
type Capabilities struct {
	Structured bool
	Plan       bool
}

// DetectCapabilities inspects client and reports which optional interfaces
// it implements. It only reports them: no strategy in this module calls it,
// and the ReAct and ReWoo strategies use Client.Call and parse the reply
// whatever the adapter supports, never GenerateStructured or CreatePlan.
func DetectCapabilities(client Client) Capabilities {
	caps := Capabilities{}
	if sg, ok := client.(StructuredGenerator); ok && sg.SupportsStructuredGeneration() {
		caps.Structured = true
	}
	if _, ok := client.(Planner); ok {
		caps.Plan = true
	}
	return caps
}
