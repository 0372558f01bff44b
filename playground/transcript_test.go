package playground

import (
	"errors"
	"testing"
	"time"

	"github.com/kbukum/chatstream/jsonstream"
)

func fixedTranscript() *Transcript {
	tr := NewTranscript("")
	tr.now = func() time.Time { return time.UnixMilli(1000) }
	return tr
}

func TestTranscript_Apply(t *testing.T) {
	tr := fixedTranscript()
	tr.Begin("question")

	tr.Apply(RunResponse{Event: RunStarted, SessionID: "s1", RunID: "r1"})
	tr.Apply(RunResponse{Event: RunResponseEvent, Content: TextContent("Hello, ")})
	tr.Apply(RunResponse{Event: ToolCallStarted, Tools: []ToolCall{{ToolCallID: "t1", ToolName: "search"}}})
	tr.Apply(RunResponse{Event: ToolCallCompleted, Tools: []ToolCall{{ToolCallID: "t1", ToolName: "search", Content: "found"}}})
	tr.Apply(RunResponse{Event: RunResponseEvent, Content: TextContent("world")})

	msgs := tr.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "question" {
		t.Errorf("unexpected user message %+v", msgs[0])
	}
	agent := msgs[1]
	if agent.Content != "Hello, world" {
		t.Errorf("expected 'Hello, world', got %q", agent.Content)
	}
	if len(agent.Tools) != 1 || agent.Tools[0].Content != "found" {
		t.Errorf("expected merged tool call, got %+v", agent.Tools)
	}
	if tr.SessionID() != "s1" || tr.RunID() != "r1" || tr.Units() != 5 {
		t.Errorf("unexpected state session=%q run=%q units=%d", tr.SessionID(), tr.RunID(), tr.Units())
	}
}

func TestTranscript_RunCompletedReplacesContent(t *testing.T) {
	tr := fixedTranscript()
	tr.Begin("q")
	tr.Apply(RunResponse{Event: RunResponseEvent, Content: TextContent("partial")})
	tr.Apply(RunResponse{Event: RunCompleted, Content: TextContent("final answer"), CreatedAt: 42})

	last, _ := tr.Last()
	if last.Content != "final answer" || last.CreatedAt != 42 {
		t.Errorf("unexpected message %+v", last)
	}
}

func TestTranscript_RunError(t *testing.T) {
	tr := fixedTranscript()
	tr.Begin("q")
	tr.Apply(RunResponse{Event: RunError, Content: TextContent("model overloaded")})

	last, _ := tr.Last()
	if !last.StreamingError || last.Content != "model overloaded" {
		t.Errorf("unexpected message %+v", last)
	}
}

func TestTranscript_Fail(t *testing.T) {
	tr := fixedTranscript()
	tr.Begin("q")
	tr.Fail(errors.New("connection reset"))

	last, _ := tr.Last()
	if !last.StreamingError || last.Content != "connection reset" {
		t.Errorf("unexpected message %+v", last)
	}
	if tr.Err() == nil {
		t.Error("expected recorded error")
	}
}

func TestTranscript_OnUnit(t *testing.T) {
	tr := fixedTranscript()
	tr.OnUnit(jsonstream.Unit{Seq: 1, Raw: []byte(`{"event":"RunResponse","content":"hi"}`)})
	tr.OnUnit(jsonstream.Unit{Seq: 2, Raw: []byte(`{"content":5,"tools":"nope"}`)})

	msgs := tr.Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleAgent || msgs[0].Content != "hi" {
		t.Errorf("unexpected messages %+v", msgs)
	}
	if tr.Units() != 1 {
		t.Errorf("expected undecodable unit to be skipped, got %d units", tr.Units())
	}
}

func TestTranscript_ExtraDataAndAudio(t *testing.T) {
	tr := fixedTranscript()
	tr.Begin("q")
	tr.Apply(RunResponse{ResponseAudio: &ResponseAudio{Transcript: "he"}, ExtraData: &ExtraData{References: []Reference{{Query: "q"}}}})
	tr.Apply(RunResponse{ResponseAudio: &ResponseAudio{Transcript: "llo"}, ExtraData: &ExtraData{ReasoningSteps: []Reasoning{{Title: "think"}}}})

	last, _ := tr.Last()
	if last.ResponseAudio.Transcript != "hello" {
		t.Errorf("expected appended transcript, got %q", last.ResponseAudio.Transcript)
	}
	if len(last.ExtraData.References) != 1 || len(last.ExtraData.ReasoningSteps) != 1 {
		t.Errorf("expected merged extra data, got %+v", last.ExtraData)
	}
}
