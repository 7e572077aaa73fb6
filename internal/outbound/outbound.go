// Package outbound implements the outbound send interface the router
// consumes: sendReply/sendMessage. Nothing in this package applies a
// timeout to a send.
package outbound

import "context"

// Sender is the narrow interface the router holds a reference to; the
// concrete implementation (an HTTP client to the WhatsApp gateway) is an
// external collaborator out of this core's scope.
type Sender interface {
	SendReply(ctx context.Context, chatID, text, replyToMessageID string) error
	SendMessage(ctx context.Context, chatID, text string) error
}

// Sent records one call made against a Recorder, for tests and the CLI
// harness to inspect what the router would have sent.
type Sent struct {
	ChatID           string
	Text             string
	ReplyToMessageID string
}

// Recorder is an in-memory Sender that appends every call instead of
// performing network I/O — the stand-in for the out-of-scope gateway
// client.
type Recorder struct {
	Sent []Sent
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SendReply(_ context.Context, chatID, text, replyToMessageID string) error {
	r.Sent = append(r.Sent, Sent{ChatID: chatID, Text: text, ReplyToMessageID: replyToMessageID})
	return nil
}

func (r *Recorder) SendMessage(_ context.Context, chatID, text string) error {
	r.Sent = append(r.Sent, Sent{ChatID: chatID, Text: text})
	return nil
}
