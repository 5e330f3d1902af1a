package invoker

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/agentcore/core/agent/toolerrors"
)

// ValidationError carries the user-facing message for a schema failure
// (§4.1 step 4) together with the instance paths taken from the validator's
// error tree.
type ValidationError struct {
	*toolerrors.ToolError
	// MissingFields lists the slash-joined instance paths the schema
	// validator flagged. A missing required property is reported at the path
	// of the object that lacks it, so a property missing from the top-level
	// input adds no entry here; the missing property names appear only in the
	// wrapped validator error.
	MissingFields []string
}

func newValidationError(toolName string, schemaErr error) error {
	var ve *jsonschema.ValidationError
	var fields []string
	if errors.As(schemaErr, &ve) {
		fields = collectInstanceLocations(ve)
	}
	msg := fmt.Sprintf("input for tool %q did not match its schema", toolName)
	if len(fields) > 0 {
		msg = fmt.Sprintf("%s; check: %s", msg, strings.Join(fields, ", "))
	}
	return &ValidationError{
		ToolError:     toolerrors.NewWithCause(toolerrors.KindValidation, msg, schemaErr),
		MissingFields: fields,
	}
}

// collectInstanceLocations walks a jsonschema.ValidationError tree and
// returns the distinct instance-location paths reported by the validator,
// sorted for determinism.
func collectInstanceLocations(ve *jsonschema.ValidationError) []string {
	seen := make(map[string]struct{})
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if e == nil {
			return
		}
		loc := strings.Join(e.InstanceLocation, "/")
		if loc != "" {
			seen[loc] = struct{}{}
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

// toJSONValue normalizes a map[string]any into the any-tree shape the
// jsonschema validator expects (numbers as float64, nested maps/slices of
// any). map[string]any already satisfies this for JSON-derived input, so
// this is effectively an identity conversion kept for documentation and to
// give validation call sites a single conversion point to adjust later.
func toJSONValue(input map[string]any) any {
	if input == nil {
		return map[string]any{}
	}
	return input
}
