package rewoo

import (
	"context"

	"github.com/agentcore/core/agent/model"
	"github.com/agentcore/core/agent/prompt"
	"github.com/agentcore/core/agent/toolerrors"
	"github.com/agentcore/core/agent/types"
)

// sketch asks the model to propose up to topKSketches sub-questions,
// deduplicates by id, and fails the run if none come back (§4.6 step 1).
func (s *Strategy) sketch(ctx context.Context, execCtx *types.StrategyExecutionContext) ([]Sketch, error) {
	composed := prompt.Compose(prompt.Request{
		Input:    execCtx.Input,
		Tools:    s.registry.All(),
		Identity: s.identity,
		Mode:     prompt.ModePlanner,
	})

	resp, err := s.client.Call(ctx, model.CallRequest{
		Messages: []model.Message{
			{Role: "system", Content: composed.SystemPrompt},
			{Role: "user", Content: composed.UserPrompt},
		},
	})
	if err != nil {
		return nil, toolerrors.Errorf(toolerrors.KindToolExecution, "rewoo sketch: model call failed: %v", err)
	}

	sketches, err := parseSketchResponse(resp.Content)
	if err != nil {
		return nil, err
	}
	if len(sketches) == 0 {
		return nil, toolerrors.New(toolerrors.KindParse, "rewoo sketch: model returned no usable sketches")
	}
	if s.topKSketches > 0 && len(sketches) > s.topKSketches {
		sketches = sketches[:s.topKSketches]
	}
	return sketches, nil
}
