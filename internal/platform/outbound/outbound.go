// Package outbound is the at-least-once delivery queue for notification
// email. Sends are enqueued after the owning transaction commits and retried
// by River workers; a failed SMTP exchange never fails the originating
// request.
package outbound

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"hrops/internal/platform/email"
	"hrops/internal/platform/metrics"
)

type EmailArgs struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Template string `json:"template"`
}

func (EmailArgs) Kind() string { return "email_send" }

func (EmailArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 8}
}

type emailWorker struct {
	river.WorkerDefaults[EmailArgs]
	mailer  email.Mailer
	from    string
	metrics *metrics.Collector
}

func (w *emailWorker) Work(ctx context.Context, job *river.Job[EmailArgs]) error {
	err := w.mailer.Send(ctx, w.from, job.Args.To, job.Args.Subject, job.Args.Body)
	if w.metrics != nil {
		w.metrics.RecordEmail(job.Args.Template, err)
	}
	if err != nil {
		slog.Warn("outbound email failed", "template", job.Args.Template, "attempt", job.Attempt, "err", err)
	}
	return err
}

type Queue struct {
	client *river.Client[pgx.Tx]
}

func New(pool *pgxpool.Pool, mailer email.Mailer, from string, workers int, collector *metrics.Collector) (*Queue, error) {
	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, &emailWorker{mailer: mailer, from: from, metrics: collector})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: workers},
		},
		Workers: riverWorkers,
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}
	return &Queue{client: client}, nil
}

func (q *Queue) Start(ctx context.Context) error { return q.client.Start(ctx) }
func (q *Queue) Stop(ctx context.Context) error  { return q.client.Stop(ctx) }

// EnqueueEmail queues a message for background delivery. Callers treat
// enqueue failure as a log-and-continue condition: the user-facing write has
// already committed.
func (q *Queue) EnqueueEmail(ctx context.Context, args EmailArgs) {
	if q == nil {
		return
	}
	if _, err := q.client.Insert(ctx, args, nil); err != nil {
		slog.Warn("email enqueue failed", "template", args.Template, "to", args.To, "err", err)
	}
}

// Migrate applies River's own schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("run river migrations: %w", err)
	}
	return nil
}
