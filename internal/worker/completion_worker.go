package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/elms-backend/internal/repository"
	"github.com/stemsi/elms-backend/internal/service"
)

// CompletionWorker sweeps for sessions whose scheduled end has passed and
// moves them to COMPLETED. Invigilators forget to press the button; the
// sweep is the backstop that keeps late script submissions flagged.
type CompletionWorker struct {
	sessionRepo *repository.ExamSessionRepository
	monitor     *service.MonitorService
	timezone    string
	interval    time.Duration
	log         zerolog.Logger
}

// NewCompletionWorker creates a new CompletionWorker.
func NewCompletionWorker(
	sessionRepo *repository.ExamSessionRepository,
	monitor *service.MonitorService,
	timezone string,
	interval time.Duration,
	log zerolog.Logger,
) *CompletionWorker {
	return &CompletionWorker{
		sessionRepo: sessionRepo,
		monitor:     monitor,
		timezone:    timezone,
		interval:    interval,
		log:         log.With().Str("component", "completion_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *CompletionWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CompletionWorker) sweep(ctx context.Context) {
	ids, err := w.sessionRepo.CompleteOverdue(ctx, w.timezone)
	if err != nil {
		w.log.Error().Err(err).Msg("Sweep failed")
		return
	}
	if len(ids) == 0 {
		return
	}

	for _, id := range ids {
		w.monitor.RecordCompletion(ctx, id)
	}
	w.log.Info().Int("count", len(ids)).Msg("Completed overdue sessions")
}
