// Package deps implements the Dependency Resolver (C4): it topologically
// orders tool calls into parallel-safe phases and reports cycles as
// warnings rather than failures (§4.2).
package deps

import "github.com/agentcore/core/agent/tools"

// Resolution is the output of Resolve: an ordered set of phases plus any
// warnings encountered while building the graph.
type Resolution struct {
	// ExecutionOrder groups tool calls by phase, ascending; calls within a
	// phase have no required dependency on each other and may run
	// concurrently.
	ExecutionOrder [][]tools.ToolCall
	// Warnings lists non-fatal issues encountered while resolving (cycles).
	Warnings []string
}

// Resolve computes phases for calls given deps (§4.2). It never fails:
// cycles degrade to a best-effort ordering and are reported as warnings
// (P4 still holds for the acyclic portion of the graph).
func Resolve(calls []tools.ToolCall, dependencies []tools.ToolDependency) Resolution {
	required := make(map[string][]string, len(dependencies))
	optional := make(map[string][]string, len(dependencies))
	for _, d := range dependencies {
		switch d.Type {
		case tools.DependencyOptional:
			optional[d.ToolName] = append(optional[d.ToolName], d.Dependencies...)
		default:
			required[d.ToolName] = append(required[d.ToolName], d.Dependencies...)
		}
	}

	// Preserve submission order for stable tie-breaks within a phase and
	// for diagnosing duplicate tool names (phase is keyed by first
	// occurrence of a tool name).
	order := make([]string, 0, len(calls))
	byName := make(map[string][]tools.ToolCall, len(calls))
	seenName := make(map[string]bool, len(calls))
	for _, c := range calls {
		if !seenName[c.ToolName] {
			seenName[c.ToolName] = true
			order = append(order, c.ToolName)
		}
		byName[c.ToolName] = append(byName[c.ToolName], c)
	}

	r := &resolver{
		required: required,
		optional: optional,
		phase:    make(map[string]int, len(order)),
		state:    make(map[string]visitState, len(order)),
	}
	var warnings []string
	for _, name := range order {
		warnings = append(warnings, r.visit(name, nil)...)
	}

	maxPhase := -1
	for _, p := range r.phase {
		if p > maxPhase {
			maxPhase = p
		}
	}
	phases := make([][]tools.ToolCall, maxPhase+1)
	for _, name := range order {
		p := r.phase[name]
		phases[p] = append(phases[p], byName[name]...)
	}

	return Resolution{ExecutionOrder: phases, Warnings: warnings}
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

type resolver struct {
	required map[string][]string
	optional map[string][]string
	phase    map[string]int
	state    map[string]visitState
}

// visit performs a depth-first walk computing phase(n) = 1 + max(phase(d))
// over n's required dependencies, 0 if none. Optional dependencies are
// visited (so their own phases are computed, in case they also appear as
// calls) but never raise n's phase. A node re-entered while on the active
// stack yields a circular-dependency warning and is skipped rather than
// revisited (§4.2 step 2); the remaining graph is still ordered as best as
// possible.
func (r *resolver) visit(name string, stack []string) []string {
	switch r.state[name] {
	case visited:
		return nil
	case visiting:
		return []string{"Circular dependency detected involving tool: " + name}
	}
	r.state[name] = visiting
	stack = append(stack, name)

	var warnings []string
	maxRequired := -1
	for _, dep := range r.required[name] {
		warnings = append(warnings, r.visit(dep, stack)...)
		if p, ok := r.phase[dep]; ok && p > maxRequired {
			maxRequired = p
		}
	}
	for _, dep := range r.optional[name] {
		warnings = append(warnings, r.visit(dep, stack)...)
	}

	r.phase[name] = maxRequired + 1
	r.state[name] = visited
	return warnings
}
