package outbound

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// outboundLine is the NDJSON shape the CLI harness writes to stdout for
// every reply, mirroring the JSON envelope defined for inbound events.
type outboundLine struct {
	ChatID           string `json:"chat_id"`
	Text             string `json:"text"`
	ReplyToMessageID string `json:"reply_to_message_id,omitempty"`
}

// StdioSender writes one NDJSON line per send to w, serialized by mu
// since the router may call it from concurrently-handled chats.
type StdioSender struct {
	mu sync.Mutex
	w  io.Writer
	enc *json.Encoder
}

// NewStdioSender returns a Sender that writes NDJSON lines to w — the
// CLI harness substituting for the out-of-scope WhatsApp gateway client.
func NewStdioSender(w io.Writer) *StdioSender {
	return &StdioSender{w: w, enc: json.NewEncoder(w)}
}

func (s *StdioSender) write(line outboundLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(line); err != nil {
		return fmt.Errorf("outbound: write line: %w", err)
	}
	return nil
}

func (s *StdioSender) SendReply(_ context.Context, chatID, text, replyToMessageID string) error {
	return s.write(outboundLine{ChatID: chatID, Text: text, ReplyToMessageID: replyToMessageID})
}

func (s *StdioSender) SendMessage(_ context.Context, chatID, text string) error {
	return s.write(outboundLine{ChatID: chatID, Text: text})
}
