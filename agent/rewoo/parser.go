package rewoo

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON tries strict JSON first, then JSON lifted out of a fenced code
// block, returning the raw bytes to unmarshal against a phase-specific
// shape. Mirrors the ReAct parser's first two cascade tiers (§4.5 step 1);
// ReWoo's phases don't need the manual-regex or zero-confidence tiers since
// a failed Sketch/Organize call is itself a fatal phase failure (§4.6).
func extractJSON(raw string) ([]byte, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" && trimmed[0] == '{' {
		return []byte(trimmed), true
	}
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		return []byte(m[1]), true
	}
	return nil, false
}

type rawSketchResponse struct {
	Sketches []rawSketch `json:"sketches"`
}

type rawSketch struct {
	ID        string         `json:"id"`
	Query     string         `json:"query"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

func parseSketchResponse(raw string) ([]Sketch, error) {
	body, ok := extractJSON(raw)
	if !ok {
		return nil, errParseSketch("model output did not contain a recognizable JSON sketch list")
	}
	var resp rawSketchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errParseSketch("sketch response did not match the expected shape: " + err.Error())
	}
	seen := make(map[string]bool, len(resp.Sketches))
	out := make([]Sketch, 0, len(resp.Sketches))
	for _, rs := range resp.Sketches {
		if rs.ID == "" || seen[rs.ID] {
			continue
		}
		seen[rs.ID] = true
		out = append(out, Sketch{ID: rs.ID, Query: rs.Query, Tool: rs.Tool, Arguments: rs.Arguments})
	}
	return out, nil
}

type rawOrganization struct {
	Answer     string   `json:"answer"`
	Citations  []string `json:"citations"`
	Confidence float64  `json:"confidence"`
}

func parseOrganizeResponse(raw string) (Organization, error) {
	body, ok := extractJSON(raw)
	if !ok {
		return Organization{}, errParseOrganize("model output did not contain a recognizable JSON answer")
	}
	var resp rawOrganization
	if err := json.Unmarshal(body, &resp); err != nil {
		return Organization{}, errParseOrganize("organize response did not match the expected shape: " + err.Error())
	}
	return Organization{Answer: resp.Answer, Citations: resp.Citations, Confidence: resp.Confidence}, nil
}
