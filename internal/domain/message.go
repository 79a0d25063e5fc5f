package domain

// MessageType classifies an inbound WhatsApp message.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeOther MessageType = "other"
)

// MediaRef points at media hosted by the platform. The bytes are fetched
// separately through the media endpoints.
type MediaRef struct {
	ID      string
	Caption string
}

// InboundMessage is the first message extracted from one webhook delivery.
// Exactly one of Text / Media is populated, matching Type. It lives for the
// duration of a single dispatch and is never stored.
type InboundMessage struct {
	From  string
	Type  MessageType
	Text  string
	Media *MediaRef
}

// MediaPayload is downloaded media, consumed immediately by the completion
// client and never written to disk.
type MediaPayload struct {
	Data     []byte
	MimeType string
}

// OutboundReply is the text handed to the send call.
type OutboundReply struct {
	To   string
	Text string
}
