package playground

import (
	"sync"
	"time"

	"github.com/kbukum/chatstream/jsonstream"
	"github.com/kbukum/chatstream/stream"
)

// Roles of transcript messages.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Message is one entry of a Transcript.
type Message struct {
	Role    string
	Content string
	// CreatedAt is in unix milliseconds for local messages and unix seconds
	// once a chunk supplies it.
	CreatedAt     int64
	Tools         []ToolCall
	Images        []Image
	Videos        []Video
	Audio         []Audio
	ResponseAudio *ResponseAudio
	ExtraData     *ExtraData
	// StreamingError marks an agent message whose run failed.
	StreamingError bool
}

// Transcript folds RunResponse chunks into the last agent message. It is
// safe for concurrent use.
type Transcript struct {
	mu        sync.Mutex
	messages  []Message
	sessionID string
	runID     string
	units     int
	err       error
	now       func() time.Time
}

// NewTranscript creates a Transcript continuing sessionID, which may be
// empty.
func NewTranscript(sessionID string) *Transcript {
	return &Transcript{sessionID: sessionID, now: time.Now}
}

// Begin adds the user message and an empty agent message that subsequent
// chunks fill in.
func (t *Transcript) Begin(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts := t.now().UnixMilli()
	t.messages = append(t.messages,
		Message{Role: RoleUser, Content: text, CreatedAt: ts},
		Message{Role: RoleAgent, CreatedAt: ts},
	)
	t.err = nil
}

// Apply folds one chunk into the last agent message.
func (t *Transcript) Apply(chunk RunResponse) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.units++

	if chunk.SessionID != "" {
		t.sessionID = chunk.SessionID
	}
	if chunk.RunID != "" {
		t.runID = chunk.RunID
	}

	last := t.agentMessage()
	switch chunk.Event {
	case RunError:
		last.StreamingError = true
		if text := chunk.Text(); text != "" {
			last.Content = text
		}
		return
	case RunCompleted:
		if text := chunk.Text(); text != "" {
			last.Content = text
		}
	default:
		last.Content += chunk.Text()
	}

	last.Tools = mergeTools(last.Tools, chunk.Tools)
	if len(chunk.Images) > 0 {
		last.Images = chunk.Images
	}
	if len(chunk.Videos) > 0 {
		last.Videos = chunk.Videos
	}
	if len(chunk.Audio) > 0 {
		last.Audio = chunk.Audio
	}
	if chunk.ResponseAudio != nil {
		last.ResponseAudio = mergeAudio(last.ResponseAudio, chunk.ResponseAudio)
	}
	if chunk.ExtraData != nil {
		last.ExtraData = mergeExtra(last.ExtraData, chunk.ExtraData)
	}
	if chunk.CreatedAt != 0 {
		last.CreatedAt = chunk.CreatedAt
	}
}

// Fail marks the last agent message as failed with err.
func (t *Transcript) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
	last := t.agentMessage()
	last.StreamingError = true
	if last.Content == "" && err != nil {
		last.Content = err.Error()
	}
}

// OnUnit decodes u as a RunResponse and applies it. Units that are not
// RunResponse objects are skipped.
func (t *Transcript) OnUnit(u jsonstream.Unit) {
	var chunk RunResponse
	if err := u.Decode(&chunk); err != nil {
		return
	}
	t.Apply(chunk)
}

// Handlers returns stream handlers that feed the transcript. onComplete
// may be nil.
func (t *Transcript) Handlers(onComplete func()) stream.Handlers {
	return stream.Handlers{
		OnUnit:     t.OnUnit,
		OnError:    t.Fail,
		OnComplete: onComplete,
	}
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	for i, m := range t.messages {
		m.Tools = append([]ToolCall(nil), m.Tools...)
		out[i] = m
	}
	return out
}

// Last returns the last message, or false when there is none.
func (t *Transcript) Last() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// SessionID returns the session the backend reported.
func (t *Transcript) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

// RunID returns the last run ID the backend reported.
func (t *Transcript) RunID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runID
}

// Units returns the number of chunks applied.
func (t *Transcript) Units() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.units
}

// Err returns the failure recorded by Fail.
func (t *Transcript) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// agentMessage returns the last agent message, adding one if the
// transcript does not end with one. Callers hold mu.
func (t *Transcript) agentMessage() *Message {
	if n := len(t.messages); n > 0 && t.messages[n-1].Role == RoleAgent {
		return &t.messages[n-1]
	}
	t.messages = append(t.messages, Message{Role: RoleAgent, CreatedAt: t.now().UnixMilli()})
	return &t.messages[len(t.messages)-1]
}

func mergeTools(existing, incoming []ToolCall) []ToolCall {
	for _, tc := range incoming {
		replaced := false
		for i := range existing {
			if tc.ToolCallID != "" && existing[i].ToolCallID == tc.ToolCallID {
				existing[i] = tc
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, tc)
		}
	}
	return existing
}

func mergeAudio(existing, incoming *ResponseAudio) *ResponseAudio {
	if existing == nil {
		cp := *incoming
		return &cp
	}
	out := *existing
	out.Content += incoming.Content
	out.Transcript += incoming.Transcript
	if incoming.ID != "" {
		out.ID = incoming.ID
	}
	if incoming.SampleRate != 0 {
		out.SampleRate = incoming.SampleRate
	}
	if incoming.Channels != 0 {
		out.Channels = incoming.Channels
	}
	return &out
}

func mergeExtra(existing, incoming *ExtraData) *ExtraData {
	if existing == nil {
		cp := *incoming
		return &cp
	}
	out := *existing
	if len(incoming.ReasoningSteps) > 0 {
		out.ReasoningSteps = incoming.ReasoningSteps
	}
	if len(incoming.ReasoningMessages) > 0 {
		out.ReasoningMessages = incoming.ReasoningMessages
	}
	if len(incoming.References) > 0 {
		out.References = incoming.References
	}
	return &out
}
