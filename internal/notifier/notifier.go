package notifier

import (
	"context"
	"log/slog"
	"sync"
)

// Notifier delivers a message to a recipient. Delivery is best-effort:
// callers log failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

// LogNotifier writes e-mails to the log instead of sending them.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, to, subject, body string) error {
	n.logger.InfoContext(ctx, "email notification",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

type Message struct {
	To      string
	Subject string
	Body    string
}

// RecordingNotifier keeps every message it is given. If Err is set, Notify
// records the message and then fails with Err.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func (r *RecordingNotifier) Notify(ctx context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{To: to, Subject: subject, Body: body})
	return r.Err
}

func (r *RecordingNotifier) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
