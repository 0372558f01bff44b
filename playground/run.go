package playground

import "encoding/json"

// RunEvent is the event tag of a RunResponse chunk.
type RunEvent string

const (
	RunStarted         RunEvent = "RunStarted"
	RunResponseEvent   RunEvent = "RunResponse"
	RunCompleted       RunEvent = "RunCompleted"
	ToolCallStarted    RunEvent = "ToolCallStarted"
	ToolCallCompleted  RunEvent = "ToolCallCompleted"
	UpdatingMemory     RunEvent = "UpdatingMemory"
	RunError           RunEvent = "RunError"
	ReasoningStarted   RunEvent = "ReasoningStarted"
	ReasoningStep      RunEvent = "ReasoningStep"
	ReasoningCompleted RunEvent = "ReasoningCompleted"
)

// ToolCall is a tool invocation reported during a run.
type ToolCall struct {
	Role          string         `json:"role,omitempty"`
	Content       string         `json:"content,omitempty"`
	ToolCallID    string         `json:"tool_call_id"`
	ToolName      string         `json:"tool_name"`
	ToolArgs      map[string]any `json:"tool_args,omitempty"`
	ToolCallError bool           `json:"tool_call_error,omitempty"`
	CreatedAt     int64          `json:"created_at,omitempty"`
}

// Image is a generated or referenced image.
type Image struct {
	URL           string `json:"url"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// Video is a generated video.
type Video struct {
	ID  int    `json:"id"`
	ETA string `json:"eta,omitempty"`
	URL string `json:"url"`
}

// Audio is an audio attachment.
type Audio struct {
	URL         string `json:"url,omitempty"`
	Base64Audio string `json:"base64_audio,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	SampleRate  int    `json:"sample_rate,omitempty"`
	Channels    int    `json:"channels,omitempty"`
}

// ResponseAudio is spoken output of the agent.
type ResponseAudio struct {
	ID         string `json:"id,omitempty"`
	Content    string `json:"content,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
}

// Reasoning is one reasoning step.
type Reasoning struct {
	Title      string  `json:"title,omitempty"`
	Action     string  `json:"action,omitempty"`
	Result     string  `json:"result,omitempty"`
	Reasoning  string  `json:"reasoning,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Reference is retrieved context the agent cited.
type Reference struct {
	Query      string   `json:"query"`
	References []string `json:"references"`
	Time       float64  `json:"time,omitempty"`
}

// ExtraData carries reasoning and references.
type ExtraData struct {
	ReasoningSteps    []Reasoning       `json:"reasoning_steps,omitempty"`
	ReasoningMessages []json.RawMessage `json:"reasoning_messages,omitempty"`
	References        []Reference       `json:"references,omitempty"`
}

// RunResponse is one chunk of an agent run stream. Content is usually a
// string but may be any JSON value.
type RunResponse struct {
	Event         RunEvent        `json:"event,omitempty"`
	Content       json.RawMessage `json:"content,omitempty"`
	ContentType   string          `json:"content_type,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	RunID         string          `json:"run_id,omitempty"`
	AgentID       string          `json:"agent_id,omitempty"`
	Model         string          `json:"model,omitempty"`
	CreatedAt     int64           `json:"created_at,omitempty"`
	Tools         []ToolCall      `json:"tools,omitempty"`
	Images        []Image         `json:"images,omitempty"`
	Videos        []Video         `json:"videos,omitempty"`
	Audio         []Audio         `json:"audio,omitempty"`
	ResponseAudio *ResponseAudio  `json:"response_audio,omitempty"`
	ExtraData     *ExtraData      `json:"extra_data,omitempty"`
}

// Text returns Content as text. A string is returned unquoted; any other
// JSON value is returned as written.
func (r RunResponse) Text() string {
	if len(r.Content) == 0 || string(r.Content) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Content, &s); err == nil {
		return s
	}
	return string(r.Content)
}

// TextContent encodes s as a Content value.
func TextContent(s string) json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}

// RunRequest starts an agent run.
type RunRequest struct {
	// AgentID defaults to Config.AgentID.
	AgentID   string
	Message   string
	SessionID string
	Files     []File
}

// File is an upload attached to a run.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}
