package rewoo

import "github.com/agentcore/core/agent/toolerrors"

func errParseSketch(msg string) error {
	return toolerrors.New(toolerrors.KindParse, "rewoo sketch: "+msg)
}

func errParseOrganize(msg string) error {
	return toolerrors.New(toolerrors.KindParse, "rewoo organize: "+msg)
}
