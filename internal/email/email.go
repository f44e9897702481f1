package email

import (
	"context"
	"errors"
	"log/slog"
)

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender simulates outgoing mail: messages are logged, nothing leaves the process.
type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("email recipient is required")
	}

	names := make([]string, 0, len(msg.Attachments))
	size := 0
	for _, a := range msg.Attachments {
		names = append(names, a.Name)
		size += len(a.Data)
	}
	s.logger.InfoContext(ctx, "send email",
		"to", msg.To,
		"subject", msg.Subject,
		"attachments", names,
		"attachment_bytes", size,
	)
	return nil
}
