// Package jobs runs periodic in-process maintenance work and records every
// run in job_runs for operational visibility.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrops/internal/platform/metrics"
)

// Func does one run of a job and returns details worth persisting.
type Func func(ctx context.Context) (details map[string]any, err error)

type job struct {
	name     string
	interval time.Duration
	fn       Func
}

type Service struct {
	pool    *pgxpool.Pool
	log     *slog.Logger
	metrics *metrics.Collector
	jobs    []job

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(pool *pgxpool.Pool, log *slog.Logger, collector *metrics.Collector) *Service {
	return &Service{pool: pool, log: log, metrics: collector}
}

func (s *Service) Register(name string, interval time.Duration, fn Func) {
	s.jobs = append(s.jobs, job{name: name, interval: interval, fn: fn})
}

// Start launches one ticker goroutine per registered job. Each job also runs
// once shortly after startup so a missed schedule (process down over the
// trigger time) still gets covered.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
}

func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Service) loop(ctx context.Context, j job) {
	defer s.wg.Done()

	select {
	case <-time.After(time.Minute):
		s.run(ctx, j)
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.run(ctx, j)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) run(ctx context.Context, j job) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	var runID string
	err := s.pool.QueryRow(runCtx, `
		INSERT INTO job_runs (job_type, status)
		VALUES ($1, 'RUNNING')
		RETURNING id`, j.name).Scan(&runID)
	if err != nil {
		s.log.Error("job run insert failed", "job", j.name, "error", err)
		return
	}

	details, jobErr := j.fn(runCtx)
	s.metrics.RecordJob(j.name, jobErr)

	status := "COMPLETED"
	if jobErr != nil {
		status = "FAILED"
		if details == nil {
			details = map[string]any{}
		}
		details["error"] = jobErr.Error()
		s.log.Error("job failed", "job", j.name, "error", jobErr)
	} else {
		s.log.Info("job completed", "job", j.name, "details", details)
	}

	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte("{}")
	}
	_, err = s.pool.Exec(runCtx, `
		UPDATE job_runs
		SET status = $2, details_json = $3, completed_at = now()
		WHERE id = $1`, runID, status, raw)
	if err != nil {
		s.log.Error("job run update failed", "job", j.name, "error", err)
	}
}
