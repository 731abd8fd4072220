package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/elms-backend/internal/config"
	"github.com/stemsi/elms-backend/internal/model"
	"github.com/stemsi/elms-backend/internal/repository"
)

// MonitorEventType labels one entry on a session's live monitor feed.
type MonitorEventType string

const (
	MonitorEventCheckIn   MonitorEventType = "check_in"
	MonitorEventScript    MonitorEventType = "script_submitted"
	MonitorEventIncident  MonitorEventType = "incident"
	MonitorEventCompleted MonitorEventType = "completed"
)

// MonitorEvent is one message published on a session's monitor channel and
// forwarded to connected coordinators.
type MonitorEvent struct {
	Type      MonitorEventType `json:"type"`
	SessionID uuid.UUID        `json:"session_id"`
	StudentID string           `json:"student_id,omitempty"`
	Severity  string           `json:"severity,omitempty"`
	Detail    string           `json:"detail,omitempty"`
	At        time.Time        `json:"at"`
}

// MonitorSnapshot is the current logistics picture of one session.
type MonitorSnapshot struct {
	SessionID     uuid.UUID                `json:"session_id"`
	CourseCode    string                   `json:"course_code"`
	SessionStatus model.SessionStatus      `json:"session_status"`
	Counts        repository.SessionCounts `json:"counts"`
}

// MonitorService keeps the live per-session logistics counters in Redis and
// publishes the monitor feed. PostgreSQL remains the source of truth; on a
// cache miss the counters are rebuilt from the registrations table and put
// back (self-heal), so an evicted key only costs one extra query.
type MonitorService struct {
	regRepo *repository.RegistrationRepository
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(regRepo *repository.RegistrationRepository, rdb *redis.Client, log zerolog.Logger) *MonitorService {
	return &MonitorService{
		regRepo: regRepo,
		rdb:     rdb,
		log:     log.With().Str("component", "monitor_service").Logger(),
	}
}

// Counts returns a session's live counters, rebuilding the cache from
// PostgreSQL when Redis has nothing for the session.
func (s *MonitorService) Counts(ctx context.Context, sessionID uuid.UUID) (repository.SessionCounts, error) {
	key := config.CacheKey.SessionCountersKey(sessionID.String())

	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return repository.SessionCounts{}, fmt.Errorf("get counters: %w", err)
	}

	// An HIncrBy can create the hash with only the bumped field, so a
	// partial hash is treated like a miss too.
	if fields["registered"] == "" {
		// Rebuild from the registrations table.
		counts, err := s.regRepo.CountsBySession(ctx, sessionID)
		if err != nil {
			return repository.SessionCounts{}, fmt.Errorf("count registrations: %w", err)
		}
		_ = s.rdb.HSet(ctx, key,
			"registered", counts.Registered,
			"checked_in", counts.CheckedIn,
			"scripts_submitted", counts.ScriptsSubmitted,
		).Err()
		return counts, nil
	}

	return repository.SessionCounts{
		Registered:       atoiField(fields, "registered"),
		CheckedIn:        atoiField(fields, "checked_in"),
		ScriptsSubmitted: atoiField(fields, "scripts_submitted"),
	}, nil
}

func atoiField(fields map[string]string, name string) int {
	n := 0
	fmt.Sscanf(fields[name], "%d", &n)
	return n
}

// Snapshot combines a session's status with its live counters.
func (s *MonitorService) Snapshot(ctx context.Context, session *model.ExamSession) (*MonitorSnapshot, error) {
	counts, err := s.Counts(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return &MonitorSnapshot{
		SessionID:     session.ID,
		CourseCode:    session.CourseCode,
		SessionStatus: session.SessionStatus,
		Counts:        counts,
	}, nil
}

// RecordCheckIn bumps the live check-in counter and publishes the event.
// Counter failures are logged, never surfaced: the registration row is the
// source of truth and the cache self-heals.
func (s *MonitorService) RecordCheckIn(ctx context.Context, sessionID uuid.UUID, studentID string) {
	key := config.CacheKey.SessionCountersKey(sessionID.String())
	if err := s.rdb.HIncrBy(ctx, key, "checked_in", 1).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to bump check-in counter")
	}
	s.publish(ctx, MonitorEvent{
		Type:      MonitorEventCheckIn,
		SessionID: sessionID,
		StudentID: studentID,
		At:        time.Now().UTC(),
	})
}

// RecordScript bumps the live script counter and publishes the event.
func (s *MonitorService) RecordScript(ctx context.Context, sessionID uuid.UUID, studentID string) {
	key := config.CacheKey.SessionCountersKey(sessionID.String())
	if err := s.rdb.HIncrBy(ctx, key, "scripts_submitted", 1).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to bump script counter")
	}
	s.publish(ctx, MonitorEvent{
		Type:      MonitorEventScript,
		SessionID: sessionID,
		StudentID: studentID,
		At:        time.Now().UTC(),
	})
}

// RecordIncident publishes an incident notice on the monitor feed.
func (s *MonitorService) RecordIncident(ctx context.Context, inc *model.Incident) {
	s.publish(ctx, MonitorEvent{
		Type:      MonitorEventIncident,
		SessionID: inc.SessionID,
		Severity:  string(inc.Severity),
		Detail:    inc.Description,
		At:        time.Now().UTC(),
	})
}

// RecordCompletion announces a session ending on the monitor feed.
func (s *MonitorService) RecordCompletion(ctx context.Context, sessionID uuid.UUID) {
	s.publish(ctx, MonitorEvent{
		Type:      MonitorEventCompleted,
		SessionID: sessionID,
		At:        time.Now().UTC(),
	})
}

func (s *MonitorService) publish(ctx context.Context, event MonitorEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal monitor event")
		return
	}
	channel := config.CacheKey.SessionMonitorChannel(event.SessionID.String())
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("Publish monitor event")
	}
}

// Subscribe opens a PubSub subscription on a session's monitor channel.
// The caller owns the subscription and must close it.
func (s *MonitorService) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.SessionMonitorChannel(sessionID.String()))
}
