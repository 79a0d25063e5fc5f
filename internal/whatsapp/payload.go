package whatsapp

import "farmbot/internal/domain"

// Webhook delivery payload as sent by the Cloud API. Only the fields the
// relay reads are mapped.

type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Value Value  `json:"value"`
	Field string `json:"field"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Messages         []Message `json:"messages"`
}

type Message struct {
	From  string `json:"from"`
	ID    string `json:"id"`
	Type  string `json:"type"`
	Text  *Text  `json:"text,omitempty"`
	Image *Image `json:"image,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

type Image struct {
	ID       string `json:"id"`
	Caption  string `json:"caption,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
}

// FirstMessage extracts entry[0].changes[0].value.messages[0] as a domain
// message, or nil when the delivery carries no message (status callbacks,
// truncated payloads). Messages whose type tag does not match their body are
// treated as message-less rather than dispatched half-formed.
func (p *Payload) FirstMessage() *domain.InboundMessage {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return nil
	}
	msgs := p.Entry[0].Changes[0].Value.Messages
	if len(msgs) == 0 {
		return nil
	}
	msg := msgs[0]

	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return nil
		}
		return &domain.InboundMessage{
			From: msg.From,
			Type: domain.TypeText,
			Text: msg.Text.Body,
		}
	case "image":
		if msg.Image == nil {
			return nil
		}
		return &domain.InboundMessage{
			From:  msg.From,
			Type:  domain.TypeImage,
			Media: &domain.MediaRef{ID: msg.Image.ID, Caption: msg.Image.Caption},
		}
	default:
		return &domain.InboundMessage{
			From: msg.From,
			Type: domain.TypeOther,
		}
	}
}
