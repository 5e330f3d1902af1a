package rewoo

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentcore/core/agent/model"
	"github.com/agentcore/core/agent/prompt"
	"github.com/agentcore/core/agent/toolerrors"
	"github.com/agentcore/core/agent/types"
)

const maxAutoCitations = 6

// organize asks the model to synthesize an answer from evidence (§4.6 step
// 3). extraConstraints is non-empty on a Verify re-run, appended to the
// memory context handed to the model.
func (s *Strategy) organize(ctx context.Context, execCtx *types.StrategyExecutionContext, evidence []Evidence, extraConstraints string) (Organization, error) {
	memory := renderEvidence(evidence)
	if extraConstraints != "" {
		memory += "\n\nAdditional constraints from verification: " + extraConstraints
	}

	composed := prompt.Compose(prompt.Request{
		Input:         execCtx.Input,
		History:       execCtx.History,
		Identity:      s.identity,
		MemoryContext: memory,
		Mode:          prompt.ModeOrganizer,
	})

	resp, err := s.client.Call(ctx, model.CallRequest{
		Messages: []model.Message{
			{Role: "system", Content: composed.SystemPrompt},
			{Role: "user", Content: composed.UserPrompt},
		},
	})
	if err != nil {
		return Organization{}, toolerrors.Errorf(toolerrors.KindToolExecution, "rewoo organize: model call failed: %v", err)
	}

	org, err := parseOrganizeResponse(resp.Content)
	if err != nil {
		return Organization{}, err
	}

	if s.requireEvidenceAnchors && len(org.Citations) == 0 {
		org.Citations = firstEvidenceIDs(evidence, maxAutoCitations)
	}
	return org, nil
}

func renderEvidence(evidence []Evidence) string {
	var b strings.Builder
	b.WriteString("Evidence gathered:\n")
	for _, e := range evidence {
		if e.Error != "" {
			fmt.Fprintf(&b, "- %s (sketch %s, tool %s): ERROR %s\n", e.ID, e.SketchID, e.ToolName, e.Error)
			continue
		}
		fmt.Fprintf(&b, "- %s (sketch %s, tool %s): %v\n", e.ID, e.SketchID, e.ToolName, e.Output)
	}
	return b.String()
}

func firstEvidenceIDs(evidence []Evidence, limit int) []string {
	n := len(evidence)
	if n > limit {
		n = limit
	}
	ids := make([]string, 0, n)
	for _, e := range evidence[:n] {
		ids = append(ids, e.ID)
	}
	return ids
}
