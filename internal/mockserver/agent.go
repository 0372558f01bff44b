package mockserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/chatstream/observability"
	"github.com/kbukum/chatstream/playground"
)

// RunInput is one agent run.
type RunInput struct {
	Message   string
	SessionID string
	RunID     string
	Username  string
	Files     []string
}

// Agent produces the chunks of a run.
type Agent interface {
	Info() playground.Agent
	Run(ctx context.Context, in RunInput) []playground.RunResponse
}

// Commands understood by EchoAgent.
const (
	toolPrefix  = "/tool "
	failCommand = "/fail"
)

// EchoAgent answers "You said: <message>" one word per chunk. A message
// starting with "/tool " also reports an echo tool call, and "/fail" ends
// the run with a RunError chunk.
type EchoAgent struct {
	ID  string
	now func() time.Time
}

// NewEchoAgent creates an EchoAgent with the given ID.
func NewEchoAgent(id string) *EchoAgent {
	return &EchoAgent{ID: id, now: time.Now}
}

// CheckHealth reports the echo agent as up; it has no dependencies.
func (a *EchoAgent) CheckHealth(context.Context) observability.Health {
	return observability.Health{Name: "agent:" + a.ID, Status: observability.HealthStatusUp}
}

// Info describes the agent.
func (a *EchoAgent) Info() playground.Agent {
	return playground.Agent{
		AgentID:     a.ID,
		Name:        "Echo",
		Description: "Repeats the message back",
		Model:       &playground.Model{Name: "echo", Model: "echo-1", Provider: "mock"},
		Storage:     true,
	}
}

// Reply is the full answer to message.
func (a *EchoAgent) Reply(message string, files []string) string {
	reply := "You said: " + strings.TrimPrefix(message, toolPrefix)
	if len(files) > 0 {
		reply += fmt.Sprintf(" (files: %s)", strings.Join(files, ", "))
	}
	return reply
}

// Run returns the chunks of one run.
func (a *EchoAgent) Run(_ context.Context, in RunInput) []playground.RunResponse {
	created := a.now().Unix()
	base := playground.RunResponse{
		SessionID: in.SessionID,
		RunID:     in.RunID,
		AgentID:   a.ID,
		Model:     "echo-1",
		CreatedAt: created,
	}
	with := func(event playground.RunEvent, content string) playground.RunResponse {
		r := base
		r.Event = event
		if content != "" {
			r.Content = playground.TextContent(content)
			r.ContentType = "str"
		}
		return r
	}

	chunks := []playground.RunResponse{with(playground.RunStarted, "")}
	if in.Message == failCommand {
		return append(chunks, with(playground.RunError, "agent failed"))
	}

	if strings.HasPrefix(in.Message, toolPrefix) {
		call := playground.ToolCall{
			Role:       "tool",
			ToolCallID: "call_" + uuid.NewString()[:8],
			ToolName:   "echo",
			ToolArgs:   map[string]any{"text": strings.TrimPrefix(in.Message, toolPrefix)},
			CreatedAt:  created,
		}
		started := with(playground.ToolCallStarted, "")
		started.Tools = []playground.ToolCall{call}
		call.Content = strings.TrimPrefix(in.Message, toolPrefix)
		completed := with(playground.ToolCallCompleted, "")
		completed.Tools = []playground.ToolCall{call}
		chunks = append(chunks, started, completed)
	}

	reply := a.Reply(in.Message, in.Files)
	for _, piece := range splitWords(reply) {
		chunks = append(chunks, with(playground.RunResponseEvent, piece))
	}
	return append(chunks, with(playground.RunCompleted, reply))
}

// splitWords cuts s after each space, keeping the spaces.
func splitWords(s string) []string {
	var out []string
	for s != "" {
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:i+1])
		s = s[i+1:]
	}
	return out
}
