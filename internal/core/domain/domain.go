// Package domain defines the message types passed between the ingestion,
// classification, and publishing layers.
package domain

// MessageEnvelope carries the chat coordinates of a raw incoming message.
type MessageEnvelope struct {
	ChatID       int64
	MessageID    int64
	SenderID     int64
	RawText      string
	ChatUsername string
	ChatTitle    string
}

// NormalizedMessage pairs an envelope with its canonicalized text.
type NormalizedMessage struct {
	Envelope       MessageEnvelope
	NormalizedText string
}

// Decision is the final classifier verdict for one message.
type Decision struct {
	ShouldForward bool
	ShouldReply   bool
	ReplyText     string
	Reason        string
	RegionTag     string
}
