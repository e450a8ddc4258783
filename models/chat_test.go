package models

import (
	"encoding/json"
	"testing"
)

func TestConversationTurn_KeepsUnknownFields(t *testing.T) {
	in := `{"role":"user","content":"x","ts":1,"meta":{"lang":"ja"}}`

	var turn ConversationTurn
	if err := json.Unmarshal([]byte(in), &turn); err != nil {
		t.Fatal(err)
	}
	if turn.Role != "user" || turn.Content != "x" {
		t.Errorf("turn = %+v", turn)
	}

	out, err := json.Marshal(turn)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != in {
		t.Errorf("Marshal = %s, want %s", out, in)
	}
}

func TestConversationTurn_MarshalBuilt(t *testing.T) {
	out, err := json.Marshal(ConversationTurn{Role: RoleAssistant, Content: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"role":"assistant","content":"hi"}`; string(out) != want {
		t.Errorf("Marshal = %s, want %s", out, want)
	}
}

func TestConversationTurn_RejectsNonObject(t *testing.T) {
	var turn ConversationTurn
	if err := json.Unmarshal([]byte(`42`), &turn); err == nil {
		t.Error("expected error")
	}
}
