package playground

import (
	"encoding/json"
	"fmt"
	"time"
)

// Model describes the model behind an agent.
type Model struct {
	Name     string `json:"name,omitempty"`
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Agent is an entry of /v1/playground/agents.
type Agent struct {
	AgentID     string `json:"agent_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Model       *Model `json:"model,omitempty"`
	Storage     bool   `json:"storage"`
}

// ComboboxAgent is an agent shaped for a picker.
type ComboboxAgent struct {
	Value   string
	Label   string
	Model   Model
	Storage bool
}

func (a Agent) combobox() ComboboxAgent {
	out := ComboboxAgent{Value: a.AgentID, Label: a.Name, Storage: a.Storage}
	if a.Model != nil {
		out.Model = *a.Model
	}
	return out
}

// Token is the /login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// SessionOut is a session as returned by /new-session and /sessions.
type SessionOut struct {
	SessionID   string  `json:"session_id"`
	Username    string  `json:"username"`
	SessionName string  `json:"session_name"`
	CreatedAt   ISOTime `json:"created_at"`
}

// SessionEntry is a session in list form.
type SessionEntry struct {
	SessionID string
	Title     string
	// CreatedAt is in unix seconds.
	CreatedAt int64
}

// SessionSummary is an entry of /get-sessions.
type SessionSummary struct {
	SessionID    string `json:"session_id"`
	Title        string `json:"title"`
	CreatedAt    int64  `json:"created_at"`
	UserID       int    `json:"user_id"`
	Username     string `json:"username"`
	MessageCount int    `json:"message_count"`
}

// SessionMessage is one message of a SessionDetail. CreatedAt is in unix
// seconds.
type SessionMessage struct {
	ID        int    `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// SessionDetail is the /sessions/{id} response.
type SessionDetail struct {
	SessionID string           `json:"session_id"`
	Title     string           `json:"title"`
	CreatedAt int64            `json:"created_at"`
	UserID    int              `json:"user_id"`
	Username  string           `json:"username"`
	Messages  []SessionMessage `json:"messages"`
}

// ChatMessage is a stored chat message. CreatedAt is in unix milliseconds;
// Username is only set on user messages.
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
	Username  string `json:"username,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// SendResult is the /send-message response.
type SendResult struct {
	Response     string      `json:"response"`
	SessionID    string      `json:"session_id"`
	UserMessage  ChatMessage `json:"user_message"`
	AgentMessage ChatMessage `json:"agent_message"`
}

// ISOTime is a timestamp in ISO 8601 form. Values without a zone, as
// written by Python's isoformat, are read as UTC.
type ISOTime struct {
	time.Time
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON parses any of the accepted layouts.
func (t *ISOTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("playground: timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range isoLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("playground: unrecognized timestamp %q", s)
}

// MarshalJSON writes RFC 3339 with nanoseconds.
func (t ISOTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
