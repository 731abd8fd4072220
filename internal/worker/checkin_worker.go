package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/elms-backend/internal/config"
	"github.com/stemsi/elms-backend/internal/repository"
	"github.com/stemsi/elms-backend/internal/service"
)

// CheckinWorker consumes persist_checkins_queue and writes check-ins to
// PostgreSQL. The hall door acknowledges immediately; this worker absorbs the
// write burst at its own pace.
type CheckinWorker struct {
	regRepo *repository.RegistrationRepository
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewCheckinWorker creates a new CheckinWorker.
func NewCheckinWorker(regRepo *repository.RegistrationRepository, rdb *redis.Client, log zerolog.Logger) *CheckinWorker {
	return &CheckinWorker{
		regRepo: regRepo,
		rdb:     rdb,
		log:     log.With().Str("component", "checkin_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *CheckinWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *CheckinWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistCheckinsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload service.CheckinPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistCheckin(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("student_id", payload.StudentID).
			Str("session_id", payload.SessionID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistCheckinsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *CheckinWorker) persistCheckin(ctx context.Context, p *service.CheckinPayload) error {
	sessionID, err := uuid.Parse(p.SessionID)
	if err != nil {
		return err
	}
	_, err = w.regRepo.CheckInAt(ctx, sessionID, p.StudentID, p.SeatNumber, p.CheckedIn)
	if errors.Is(err, pgx.ErrNoRows) {
		// Registration vanished between enqueue and flush. Not retryable.
		w.log.Warn().Str("student_id", p.StudentID).Str("session_id", p.SessionID).Msg("Dropping check-in without registration")
		w.clearPending(ctx, p)
		return nil
	}
	if err == nil {
		w.clearPending(ctx, p)
	}
	return err
}

// clearPending removes the student from the session's in-flight set once the
// row is durable (or the check-in was dropped). From here the postgres
// is_present flag carries the idempotency.
func (w *CheckinWorker) clearPending(ctx context.Context, p *service.CheckinPayload) {
	key := config.CacheKey.SessionPendingCheckinsKey(p.SessionID)
	if err := w.rdb.SRem(ctx, key, p.StudentID).Err(); err != nil {
		w.log.Warn().Err(err).Msg("Clear pending check-in failed")
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *CheckinWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistCheckinsQueue).Result()
		if err != nil {
			break
		}

		var payload service.CheckinPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistCheckin(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistCheckinsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining check-ins")
	}
}
