package whatsapp

import (
	"encoding/json"
	"testing"

	"farmbot/internal/domain"
)

func decodePayload(t *testing.T, data string) *Payload {
	t.Helper()
	var p Payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatal(err)
	}
	return &p
}

const textDelivery = `{
  "object": "whatsapp_business_account",
  "entry": [{"id": "1", "changes": [{"field": "messages", "value": {
    "messaging_product": "whatsapp",
    "messages": [{"from": "911234567890", "id": "wamid.x", "type": "text",
      "text": {"body": "How to grow strawberries?"}}]
  }}]}]
}`

func TestFirstMessage_Text(t *testing.T) {
	msg := decodePayload(t, textDelivery).FirstMessage()
	if msg == nil {
		t.Fatal("expected a message")
	}
	if msg.Type != domain.TypeText {
		t.Errorf("expected text type, got %s", msg.Type)
	}
	if msg.From != "911234567890" {
		t.Errorf("unexpected sender: %s", msg.From)
	}
	if msg.Text != "How to grow strawberries?" {
		t.Errorf("unexpected body: %s", msg.Text)
	}
	if msg.Media != nil {
		t.Error("text message must not carry a media ref")
	}
}

func TestFirstMessage_ImageWithCaption(t *testing.T) {
	data := `{"entry":[{"changes":[{"value":{"messages":[
	  {"from":"91987","type":"image","image":{"id":"media-42","caption":"my tomato leaves","mime_type":"image/jpeg"}}
	]}}]}]}`
	msg := decodePayload(t, data).FirstMessage()
	if msg == nil {
		t.Fatal("expected a message")
	}
	if msg.Type != domain.TypeImage {
		t.Errorf("expected image type, got %s", msg.Type)
	}
	if msg.Media == nil || msg.Media.ID != "media-42" {
		t.Fatalf("media ref not extracted: %+v", msg.Media)
	}
	if msg.Media.Caption != "my tomato leaves" {
		t.Errorf("caption not carried: %s", msg.Media.Caption)
	}
	if msg.Text != "" {
		t.Error("image message must not populate the text body")
	}
}

func TestFirstMessage_ImageWithoutCaption(t *testing.T) {
	data := `{"entry":[{"changes":[{"value":{"messages":[
	  {"from":"91987","type":"image","image":{"id":"media-43"}}
	]}}]}]}`
	msg := decodePayload(t, data).FirstMessage()
	if msg == nil || msg.Media == nil {
		t.Fatal("expected image message with media ref")
	}
	if msg.Media.Caption != "" {
		t.Errorf("absent caption must stay empty for the dispatcher to default, got %q", msg.Media.Caption)
	}
}

func TestFirstMessage_UnsupportedType(t *testing.T) {
	data := `{"entry":[{"changes":[{"value":{"messages":[
	  {"from":"91987","type":"location"}
	]}}]}]}`
	msg := decodePayload(t, data).FirstMessage()
	if msg == nil {
		t.Fatal("expected a message")
	}
	if msg.Type != domain.TypeOther {
		t.Errorf("expected other type, got %s", msg.Type)
	}
}

func TestFirstMessage_StatusCallback(t *testing.T) {
	// Delivery receipts have a value.statuses array and no messages.
	data := `{"entry":[{"changes":[{"value":{"messaging_product":"whatsapp"}}]}]}`
	if msg := decodePayload(t, data).FirstMessage(); msg != nil {
		t.Errorf("status callback must yield no message, got %+v", msg)
	}
}

func TestFirstMessage_EmptyPayload(t *testing.T) {
	if msg := decodePayload(t, `{}`).FirstMessage(); msg != nil {
		t.Errorf("empty payload must yield no message, got %+v", msg)
	}
}

func TestFirstMessage_TypeBodyMismatch(t *testing.T) {
	data := `{"entry":[{"changes":[{"value":{"messages":[
	  {"from":"91987","type":"text"}
	]}}]}]}`
	if msg := decodePayload(t, data).FirstMessage(); msg != nil {
		t.Errorf("text message without body must be dropped, got %+v", msg)
	}
}
