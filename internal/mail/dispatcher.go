package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"classroll/internal/queue"
)

// Consumer is the read side of a queue.
type Consumer interface {
	Consume(ctx context.Context) (<-chan queue.Message, error)
}

// Recorder counts delivery outcomes ("sent", "failed", "dropped").
type Recorder interface {
	RecordEmail(result string)
}

// Dispatcher turns queued jobs into sent emails.
type Dispatcher struct {
	mailer   Mailer
	baseURL  string
	logger   *slog.Logger
	recorder Recorder
}

func NewDispatcher(mailer Mailer, baseURL string, logger *slog.Logger, recorder Recorder) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{mailer: mailer, baseURL: baseURL, logger: logger, recorder: recorder}
}

// Run consumes messages until ctx is done. Handling errors are logged and
// do not stop the loop.
func (d *Dispatcher) Run(ctx context.Context, src Consumer) error {
	msgs, err := src.Consume(ctx)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	d.logger.Info("mail dispatcher started")
	for msg := range msgs {
		if err := d.Handle(ctx, msg); err != nil {
			d.logger.Error("mail job failed",
				slog.String("type", msg.Type),
				slog.String("error", err.Error()),
			)
		}
	}
	d.logger.Info("mail dispatcher stopped")
	return nil
}

// Handle processes a single message.
func (d *Dispatcher) Handle(ctx context.Context, msg queue.Message) error {
	switch msg.Type {
	case TypeVerifyEmail:
		var job VerificationJob
		if err := json.Unmarshal(msg.Body, &job); err != nil {
			d.record("dropped")
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		email, err := VerificationEmail(d.baseURL, job)
		if err != nil {
			d.record("dropped")
			return fmt.Errorf("render %s: %w", msg.Type, err)
		}
		if err := d.mailer.Send(ctx, email); err != nil {
			d.record("failed")
			return err
		}
		d.record("sent")
		d.logger.Info("verification email sent", slog.String("to", job.Email))
		return nil
	default:
		d.record("dropped")
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (d *Dispatcher) record(result string) {
	if d.recorder != nil {
		d.recorder.RecordEmail(result)
	}
}
