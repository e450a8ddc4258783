package models

import "encoding/json"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// raw is the turn as received; extra fields are returned untouched.
	raw json.RawMessage
}

func (t *ConversationTurn) UnmarshalJSON(data []byte) error {
	type plain ConversationTurn
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = ConversationTurn(p)
	t.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (t ConversationTurn) MarshalJSON() ([]byte, error) {
	if t.raw != nil {
		return t.raw, nil
	}
	type plain ConversationTurn
	return json.Marshal(plain(t))
}

// ChatRequest is the JSON document carried in the event body.
type ChatRequest struct {
	Message             string             `json:"message"`
	ConversationHistory []ConversationTurn `json:"conversationHistory"`
}

// ChatResponse is the JSON document returned in the envelope body.
type ChatResponse struct {
	Success             bool               `json:"success"`
	Response            string             `json:"response,omitempty"`
	ConversationHistory []ConversationTurn `json:"conversationHistory,omitempty"`
	Error               string             `json:"error,omitempty"`
}
