package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/todosuite/user-service/internal/observability"
)

type MailRequest struct {
	To      string
	Link    string
	Subject string
	Purpose string
}

// Mailer delivers a single transactional message. The workflow never awaits
// delivery; a failed send is logged and otherwise dropped.
type Mailer interface {
	Send(ctx context.Context, req MailRequest) error
}

// DevMailer logs the message instead of delivering it. The activation and
// reset links end up in the service log, which is enough for local testing.
type DevMailer struct {
	logger *slog.Logger
	from   string
}

func NewDevMailer(logger *slog.Logger, from string) *DevMailer {
	return &DevMailer{logger: logger, from: from}
}

func (m *DevMailer) Send(ctx context.Context, req MailRequest) error {
	m.logger.InfoContext(ctx, "outbound mail",
		"from", m.from,
		"to", req.To,
		"subject", req.Subject,
		"purpose", req.Purpose,
		"link", req.Link,
	)
	return nil
}

const mailDispatchTimeout = 10 * time.Second

// dispatchMail fires the send on its own goroutine with a fresh context so a
// finished request cannot cancel an in-flight delivery.
func dispatchMail(mailer Mailer, logger *slog.Logger, req MailRequest) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailDispatchTimeout)
		defer cancel()
		if err := mailer.Send(ctx, req); err != nil {
			observability.RecordMailDispatch(ctx, req.Purpose, "error")
			logger.ErrorContext(ctx, "mail delivery failed",
				"to", req.To,
				"purpose", req.Purpose,
				"error", err,
			)
			return
		}
		observability.RecordMailDispatch(ctx, req.Purpose, "sent")
	}()
}
