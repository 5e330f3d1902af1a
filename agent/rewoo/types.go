package rewoo

// Sketch is a candidate sub-question or sub-task proposed during the Sketch
// phase (glossary: Sketch). Tool/Arguments are populated when the model
// pairs the sketch with a concrete tool call; a sketch with no Tool is
// answered directly during Organize from its Query alone.
type Sketch struct {
	ID        string
	Query     string
	Tool      string
	Arguments map[string]any
}

// Evidence is the Work phase's output for one sketch (§4.6): at most one of
// Output or Error is populated; both are empty for a sketch with no Tool.
type Evidence struct {
	ID        string
	SketchID  string
	ToolName  string
	Input     map[string]any
	Output    any
	Error     string
	LatencyMs int64
}

// Organization is the Organize phase's synthesized result (§4.6).
type Organization struct {
	Answer     string
	Citations  []string
	Confidence float64
}
