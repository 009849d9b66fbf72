package orchestrator

import (
	"context"

	"propflow/agents"
	"propflow/llm"
)

const coordinatorPrompt = `You are the duty coordinator at a UK estate agency.
A request arrived that none of the specialist workflows cover. Deal with it
sensibly: answer directly, or say what the team should do next. Plain text,
no markdown.`

// coordinatorAgent backs the custom fallback plan. With a language model it
// answers the query itself; without one it acknowledges the request so
// offline runs still complete.
type coordinatorAgent struct {
	llm llm.Client
}

func (c *coordinatorAgent) Info() agents.Info {
	return agents.Info{Name: "Orchestrator", Emoji: "🎯", Role: "Central Coordinator"}
}

func (c *coordinatorAgent) Execute(ctx context.Context, action string, actx map[string]interface{}) (agents.Result, error) {
	if c.llm == nil {
		return agents.Success(
			"type", "acknowledgement",
			"response", "Logged for manual handling: "+action,
		), nil
	}

	reply, err := c.llm.Complete(ctx, coordinatorPrompt, action)
	if err != nil {
		return agents.Error("language model call failed: " + err.Error()), nil
	}
	return agents.Success("type", "llm_response", "response", reply), nil
}
