package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseAdminEvent_Callback(t *testing.T) {
	data := []byte(`{"type":"callback","user_id":42,"chat_id":-100123,"message_id":7,"callback_id":"cb-1","data":"as:tg:pen:-100123:mute"}`)

	msgType, msg, err := ParseAdminEvent(data)
	if err != nil {
		t.Fatalf("ParseAdminEvent() error: %v", err)
	}
	if msgType != TypeCallback {
		t.Errorf("type = %q, want %q", msgType, TypeCallback)
	}

	cb, ok := msg.(CallbackEvent)
	if !ok {
		t.Fatalf("expected CallbackEvent, got %T", msg)
	}
	if cb.UserID != 42 || cb.ChatID != -100123 || cb.MessageID != 7 {
		t.Errorf("unexpected ids: %+v", cb)
	}
	if cb.Data != "as:tg:pen:-100123:mute" {
		t.Errorf("data = %q", cb.Data)
	}
}

func TestParseAdminEvent_Text(t *testing.T) {
	data := []byte(`{"type":"text","user_id":42,"chat_id":-100123,"message_id":8,"text":"2 hours"}`)

	msgType, msg, err := ParseAdminEvent(data)
	if err != nil {
		t.Fatalf("ParseAdminEvent() error: %v", err)
	}
	if msgType != TypeText {
		t.Errorf("type = %q, want %q", msgType, TypeText)
	}

	te, ok := msg.(TextEvent)
	if !ok {
		t.Fatalf("expected TextEvent, got %T", msg)
	}
	if te.Text != "2 hours" {
		t.Errorf("text = %q, want %q", te.Text, "2 hours")
	}
}

func TestParseAdminEvent_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "not json"},
		{"missing type", `{"user_id":1}`},
		{"empty type", `{"type":""}`},
		{"unknown type", `{"type":"render"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseAdminEvent([]byte(tt.input)); err == nil {
				t.Errorf("ParseAdminEvent(%q) expected error", tt.input)
			}
		})
	}
}

func TestNewCommand_InjectsType(t *testing.T) {
	data, err := NewCommand(TypeAck, AckCommand{CallbackID: "cb-9", Notice: "Penalty set"})
	if err != nil {
		t.Fatalf("NewCommand() error: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if m["type"] != TypeAck {
		t.Errorf("type = %v, want %q", m["type"], TypeAck)
	}
	if m["callback_id"] != "cb-9" {
		t.Errorf("callback_id = %v, want %q", m["callback_id"], "cb-9")
	}
	if !strings.Contains(string(data), "Penalty set") {
		t.Errorf("payload missing notice: %s", data)
	}
}
