// Package prompt implements the Prompt Composer (C9): it turns a
// {input, tools, history, identity, mode} tuple into a {systemPrompt,
// userPrompt} pair. The spec pins the content contract, not the wording
// (§4.7), so this composer is free to phrase things in its own voice as long
// as every required element is present.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentcore/core/agent/tools"
	"github.com/agentcore/core/agent/types"
)

// Mode selects the expected output shape described to the model (§4.7).
type Mode string

const (
	ModeExecutor          Mode = "executor"
	ModePlanner           Mode = "planner"
	ModeOrganizer         Mode = "organizer"
	ModeFinalAnswerForced Mode = "final_answer_forced"
)

// Identity describes the agent persona surfaced in the system prompt.
type Identity struct {
	Name    string
	Persona string
}

// Request is the composer's input (§4.7).
type Request struct {
	Input         string
	Tools         []tools.ToolDefinition
	History       []types.ExecutionStep
	Identity      Identity
	MemoryContext string
	Mode          Mode
	// HistoryLimit bounds how many of the most recent history entries are
	// rendered; defaults to 10 when zero.
	HistoryLimit int
}

// Composed is the composer's output: a system/user prompt pair ready to
// hand to a model.Client.
type Composed struct {
	SystemPrompt string
	UserPrompt   string
}

const defaultHistoryLimit = 10

// Compose builds the system/user prompt pair for req (§4.7).
func Compose(req Request) Composed {
	return Composed{
		SystemPrompt: systemPrompt(req),
		UserPrompt:   userPrompt(req),
	}
}

func systemPrompt(req Request) string {
	var b strings.Builder

	name := req.Identity.Name
	if name == "" {
		name = "the assistant"
	}
	fmt.Fprintf(&b, "You are %s.", name)
	if req.Identity.Persona != "" {
		fmt.Fprintf(&b, " %s", req.Identity.Persona)
	}
	b.WriteString("\n\n")

	b.WriteString(modeInstructions(req.Mode))
	b.WriteString("\n\n")

	b.WriteString("Available tools:\n")
	if len(req.Tools) == 0 {
		b.WriteString("(none)\n")
	}
	for _, t := range req.Tools {
		writeToolDescription(&b, t)
	}

	b.WriteString("\n")
	b.WriteString(outputShape(req.Mode))

	return b.String()
}

func modeInstructions(mode Mode) string {
	switch mode {
	case ModePlanner:
		return "Propose a small set of sub-questions or sketches that together answer the input. Do not answer directly yet."
	case ModeOrganizer:
		return "Synthesize a final answer from the evidence gathered so far, citing the evidence ids you relied on."
	case ModeFinalAnswerForced:
		return "You have run out of iterations or detected a repeating loop. You MUST provide a final_answer now, using whatever evidence is already available."
	default: // ModeExecutor
		return "Reason step by step, then either call exactly one tool or provide a final answer."
	}
}

func outputShape(mode Mode) string {
	switch mode {
	case ModePlanner:
		return `Respond with JSON: {"sketches":[{"id":string,"query":string,"tool":string?,"arguments":object?}]}`
	case ModeOrganizer:
		return `Respond with JSON: {"answer":string,"citations":[string],"confidence":number}`
	case ModeFinalAnswerForced:
		return `Respond with JSON: {"reasoning":string,"confidence":number,"action":{"type":"final_answer","content":string}}`
	default: // ModeExecutor
		return `Respond with JSON: {"reasoning":string,"confidence":number,"hypotheses":[{"approach":string,"confidence":number,"action":object}],"reflection":string?,"earlyStopping":{"shouldStop":bool,"reason":string}?,"action":{"type":"tool_call"|"final_answer"|"need_more_info","tool":string?,"arguments":object?,"content":string?,"question":string?}}`
	}
}

func writeToolDescription(b *strings.Builder, t tools.ToolDefinition) {
	fmt.Fprintf(b, "- %s: %s\n", t.Name, t.Description)
	schema, err := parseInputSchema(t.InputSchema)
	if err != nil || schema == nil {
		return
	}
	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sortStrings(names)
	for _, name := range names {
		prop := schema.Properties[name]
		reqFlag := "optional"
		if required[name] {
			reqFlag = "required"
		}
		fmt.Fprintf(b, "    - %s (%s, %s)", name, prop.Type, reqFlag)
		if len(prop.Enum) > 0 {
			fmt.Fprintf(b, " enum=%v", prop.Enum)
		}
		if prop.Default != nil {
			fmt.Fprintf(b, " default=%v", prop.Default)
		}
		if prop.Description != "" {
			fmt.Fprintf(b, " — %s", prop.Description)
		}
		b.WriteString("\n")
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

type jsonSchemaDoc struct {
	Type       string                    `json:"type"`
	Required   []string                  `json:"required"`
	Properties map[string]jsonSchemaProp `json:"properties"`
}

type jsonSchemaProp struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Enum        []any  `json:"enum"`
	Default     any    `json:"default"`
}

func parseInputSchema(raw []byte) (*jsonSchemaDoc, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var doc jsonSchemaDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func userPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Input: %s\n", req.Input)
	if req.MemoryContext != "" {
		fmt.Fprintf(&b, "\nMemory:\n%s\n", req.MemoryContext)
	}

	limit := req.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	history := req.History
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	if len(history) == 0 {
		return b.String()
	}

	b.WriteString("\nRecent history:\n")
	for _, step := range history {
		writeHistoryEntry(&b, step)
	}
	return b.String()
}

func writeHistoryEntry(b *strings.Builder, step types.ExecutionStep) {
	fmt.Fprintf(b, "- [%s]", step.Type)
	if step.Thought != nil {
		fmt.Fprintf(b, " thought: %s", step.Thought.Reasoning)
	}
	if step.Action != nil {
		switch step.Action.Kind {
		case types.ActionToolCall:
			fmt.Fprintf(b, " action: call %s(%v)", step.Action.Tool, step.Action.Arguments)
		case types.ActionFinalAnswer:
			fmt.Fprintf(b, " action: final_answer(%s)", step.Action.Content)
		}
	}
	if step.Result != nil {
		if step.Result.IsError() {
			fmt.Fprintf(b, " result: ERROR %v", step.Result.Content)
		} else {
			fmt.Fprintf(b, " result: %v", step.Result.Content)
		}
	}
	b.WriteString("\n")
}
