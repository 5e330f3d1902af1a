// Package loopguard implements the loop-detection rule shared by every
// strategy (§4.4): a rolling list of action fingerprints is checked for
// three identical fingerprints in a row, an A-B-A pattern, or two
// consecutive identical tool calls.
package loopguard

import (
	"encoding/json"
	"sort"
)

// Fingerprint identifies an action by its shape: kind, tool name (if any),
// and a canonical JSON rendering of its arguments. encoding/json already
// serializes map keys in sorted order, so two semantically identical
// argument maps always produce the same Fingerprint.
type Fingerprint string

// Make builds the rolling-list key for one action (type, toolName,
// JSON(arguments)) described in §4.4.
func Make(actionType, toolName string, arguments map[string]any) Fingerprint {
	keys := make([]string, 0, len(arguments))
	for k := range arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	normalized := make(map[string]any, len(arguments))
	for _, k := range keys {
		normalized[k] = arguments[k]
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		encoded = []byte(`"<unencodable-arguments>"`)
	}
	return Fingerprint(actionType + "|" + toolName + "|" + string(encoded))
}

// Guard maintains the rolling fingerprint list for a single run and
// evaluates the §4.4 detection rules.
type Guard struct {
	history []Fingerprint
}

// New constructs an empty Guard.
func New() *Guard {
	return &Guard{}
}

// Record appends fp to the rolling history.
func (g *Guard) Record(fp Fingerprint) {
	g.history = append(g.history, fp)
}

// Detect reports whether the current history triggers the loop guard: the
// last three fingerprints identical, an A-B-A pattern, or two consecutive
// identical fingerprints. Per §4.4 detection only engages "after iteration
// 2": all three rules require at least three recorded fingerprints, so the
// guard never fires before the third iteration.
func (g *Guard) Detect() bool {
	n := len(g.history)
	if n < 3 {
		return false
	}
	a, b, c := g.history[n-3], g.history[n-2], g.history[n-1]
	if b == c {
		return true
	}
	if a == b && b == c {
		return true
	}
	if a == c && a != b {
		return true
	}
	return false
}

// Len reports how many fingerprints have been recorded.
func (g *Guard) Len() int { return len(g.history) }
