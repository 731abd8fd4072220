package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/elms-backend/internal/config"
	"github.com/stemsi/elms-backend/internal/engine"
	"github.com/stemsi/elms-backend/internal/model"
	"github.com/stemsi/elms-backend/internal/repository"
	"github.com/stemsi/elms-backend/internal/response"
)

var (
	// ErrIllegalTransition is returned when a session cannot move to the
	// requested logistics state.
	ErrIllegalTransition = errors.New("illegal session state transition")
	// ErrNotRegistered is returned when a check-in or script submission names
	// a student with no registration for the session.
	ErrNotRegistered = errors.New("student is not registered for this session")
)

// CheckinPayload is one check-in event queued for asynchronous persistence.
// The hall-door burst goes through Redis; the check-in worker flushes it into
// the registrations table.
type CheckinPayload struct {
	SessionID  string    `json:"session_id"`
	StudentID  string    `json:"student_id"`
	SeatNumber string    `json:"seat_number,omitempty"`
	CheckedIn  time.Time `json:"checked_in_at"`
}

// LogisticsService handles exam-day operations: starting and completing
// sessions, check-ins, script submissions, invigilator assignment and
// incident reports. Every operation consults the session state machine
// before touching persistent state.
type LogisticsService struct {
	sessionRepo     *repository.ExamSessionRepository
	regRepo         *repository.RegistrationRepository
	invigilatorRepo *repository.InvigilatorRepository
	incidentRepo    *repository.IncidentRepository
	monitor         *MonitorService
	rdb             *redis.Client
	log             zerolog.Logger
}

// NewLogisticsService creates a new LogisticsService.
func NewLogisticsService(
	sessionRepo *repository.ExamSessionRepository,
	regRepo *repository.RegistrationRepository,
	invigilatorRepo *repository.InvigilatorRepository,
	incidentRepo *repository.IncidentRepository,
	monitor *MonitorService,
	rdb *redis.Client,
	log zerolog.Logger,
) *LogisticsService {
	return &LogisticsService{
		sessionRepo:     sessionRepo,
		regRepo:         regRepo,
		invigilatorRepo: invigilatorRepo,
		incidentRepo:    incidentRepo,
		monitor:         monitor,
		rdb:             rdb,
		log:             log.With().Str("component", "logistics_service").Logger(),
	}
}

// StartSession explicitly moves a session from NOT_STARTED to IN_PROGRESS.
func (s *LogisticsService) StartSession(ctx context.Context, sessionID uuid.UUID) (*model.ExamSession, error) {
	return s.transition(ctx, sessionID, model.SessionStatusNotStarted, model.SessionStatusInProgress)
}

// CompleteSession explicitly moves a session from IN_PROGRESS to COMPLETED.
func (s *LogisticsService) CompleteSession(ctx context.Context, sessionID uuid.UUID) (*model.ExamSession, error) {
	session, err := s.transition(ctx, sessionID, model.SessionStatusInProgress, model.SessionStatusCompleted)
	if err != nil {
		return nil, err
	}
	s.monitor.RecordCompletion(ctx, sessionID)
	return session, nil
}

func (s *LogisticsService) transition(ctx context.Context, sessionID uuid.UUID, from, to model.SessionStatus) (*model.ExamSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.SessionStatus != from || !engine.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s (currently %s)",
			ErrIllegalTransition, from, to, session.SessionStatus)
	}
	if err := s.sessionRepo.TransitionSessionStatus(ctx, sessionID, from, to); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race against a concurrent transition.
			return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
		}
		return nil, fmt.Errorf("transition session: %w", err)
	}
	session.SessionStatus = to
	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Session transitioned")
	return session, nil
}

// RegisterStudents registers a batch of students ahead of the exam.
func (s *LogisticsService) RegisterStudents(ctx context.Context, sessionID uuid.UUID, studentIDs []string) (int, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return 0, err
	}
	created, err := s.regRepo.RegisterBatch(ctx, sessionID, studentIDs)
	if err != nil {
		return created, fmt.Errorf("register students: %w", err)
	}
	return created, nil
}

// CheckIn checks a student into a session. The state machine decides
// legality; the first check-in of a NOT_STARTED session starts it. The write
// itself is queued to Redis and flushed by the check-in worker, so the hall
// door keeps moving during the morning burst. Re-checking-in a student who is
// already present is an idempotent success.
func (s *LogisticsService) CheckIn(ctx context.Context, sessionID uuid.UUID, req *model.CheckInRequest) (engine.ValidationResult, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return engine.ValidationResult{}, err
	}

	result := engine.EvaluateOperation(session.SessionStatus, model.OperationCheckIn)
	if !result.IsValid {
		return result, nil
	}

	reg, err := s.regRepo.GetByStudentAndSession(ctx, sessionID, req.StudentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result, ErrNotRegistered
		}
		return result, fmt.Errorf("get registration: %w", err)
	}
	if reg.IsPresent {
		return result, nil
	}

	// The postgres row lags the queue, so IsPresent alone misses a second
	// scan arriving before the worker flushes. The pending set closes that
	// window; membership 0 means this student's check-in is already queued.
	pendingKey := config.CacheKey.SessionPendingCheckinsKey(sessionID.String())
	added, err := s.rdb.SAdd(ctx, pendingKey, req.StudentID).Result()
	if err != nil {
		// Dedup is best-effort: a redis hiccup must not turn away a student
		// at the hall door.
		s.log.Warn().Err(err).Msg("Pending check-in set unavailable")
	} else if added == 0 {
		return result, nil
	}
	s.rdb.Expire(ctx, pendingKey, 24*time.Hour)

	// First check-in starts the session.
	if session.SessionStatus == model.SessionStatusNotStarted {
		err := s.sessionRepo.TransitionSessionStatus(ctx, sessionID,
			model.SessionStatusNotStarted, model.SessionStatusInProgress)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return result, fmt.Errorf("start session: %w", err)
		}
	}

	if err := s.enqueueCheckin(ctx, sessionID, req); err != nil {
		return result, err
	}
	s.monitor.RecordCheckIn(ctx, sessionID, req.StudentID)
	return result, nil
}

func (s *LogisticsService) enqueueCheckin(ctx context.Context, sessionID uuid.UUID, req *model.CheckInRequest) error {
	payload, err := json.Marshal(CheckinPayload{
		SessionID:  sessionID.String(),
		StudentID:  req.StudentID,
		SeatNumber: req.SeatNumber,
		CheckedIn:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal check-in: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistCheckinsQueue, payload).Err(); err != nil {
		return fmt.Errorf("queue check-in: %w", err)
	}
	return nil
}

// SubmitScript records a script hand-in. Submission implies presence; a
// student who somehow skipped check-in is marked present at the same time.
// Script volume is low, so this writes synchronously.
func (s *LogisticsService) SubmitScript(ctx context.Context, sessionID uuid.UUID, req *model.SubmitScriptRequest) (*model.StudentRegistration, engine.ValidationResult, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, engine.ValidationResult{}, err
	}

	result := engine.EvaluateOperation(session.SessionStatus, model.OperationSubmitScript)
	if !result.IsValid {
		return nil, result, nil
	}

	reg, err := s.regRepo.SubmitScript(ctx, sessionID, req.StudentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, result, ErrNotRegistered
		}
		return nil, result, fmt.Errorf("submit script: %w", err)
	}

	s.monitor.RecordScript(ctx, sessionID, req.StudentID)
	return reg, result, nil
}

// AssignInvigilator assigns staff to a session after the state machine and
// the cross-session conflict check both pass. All conflicting assignments on
// the same day are reported at once.
func (s *LogisticsService) AssignInvigilator(ctx context.Context, sessionID uuid.UUID, req *model.AssignInvigilatorRequest) (*model.InvigilatorAssignment, engine.ValidationResult, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, engine.ValidationResult{}, err
	}

	result := engine.EvaluateOperation(session.SessionStatus, model.OperationAssignInvigilator)
	if !result.IsValid {
		return nil, result, nil
	}

	interval, err := engine.NewInterval(session.ExamDate, session.StartTime, session.EndTime)
	if err != nil {
		return nil, result, fmt.Errorf("session interval: %w", err)
	}

	details, err := s.invigilatorRepo.ListDetailsForInvigilatorOnDate(ctx, req.InvigilatorID, session.ExamDate)
	if err != nil {
		return nil, result, fmt.Errorf("list assignments: %w", err)
	}
	refs := make([]engine.AssignmentRef, 0, len(details))
	for _, ref := range assignmentRefs(details) {
		if ref.SessionID != sessionID {
			refs = append(refs, ref)
		}
	}

	result.Merge(engine.CheckInvigilatorConflict(req.InvigilatorID, interval, refs))
	if !result.IsValid {
		return nil, result, nil
	}

	assignment := &model.InvigilatorAssignment{InvigilatorID: req.InvigilatorID, SessionID: sessionID}
	if err := s.invigilatorRepo.Assign(ctx, assignment); err != nil {
		return nil, result, fmt.Errorf("assign invigilator: %w", err)
	}
	return assignment, result, nil
}

// UnassignInvigilator removes staff from a session.
func (s *LogisticsService) UnassignInvigilator(ctx context.Context, sessionID uuid.UUID, invigilatorID string) error {
	return s.invigilatorRepo.Unassign(ctx, sessionID, invigilatorID)
}

// ReportIncident files an incident report, subject to the state machine, and
// pushes it onto the monitor feed.
func (s *LogisticsService) ReportIncident(ctx context.Context, sessionID uuid.UUID, req *model.ReportIncidentRequest) (*model.Incident, engine.ValidationResult, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, engine.ValidationResult{}, err
	}

	result := engine.EvaluateOperation(session.SessionStatus, model.OperationReportIncident)
	if !result.IsValid {
		return nil, result, nil
	}

	incident := &model.Incident{
		SessionID:   sessionID,
		ReportedBy:  req.ReportedBy,
		Severity:    req.Severity,
		Description: req.Description,
	}
	if err := s.incidentRepo.Create(ctx, incident); err != nil {
		return nil, result, fmt.Errorf("create incident: %w", err)
	}

	s.monitor.RecordIncident(ctx, incident)
	return incident, result, nil
}

// ListRegistrations returns one page of a session's registrations. Exam
// halls run into the hundreds of candidates, so the list is always paged.
func (s *LogisticsService) ListRegistrations(ctx context.Context, sessionID uuid.UUID, page, perPage int) ([]model.StudentRegistration, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 500 {
		perPage = 500
	}

	regs, total, err := s.regRepo.ListBySession(ctx, sessionID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if regs == nil {
		regs = []model.StudentRegistration{}
	}

	return regs, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// ListIncidents returns a session's incident reports.
func (s *LogisticsService) ListIncidents(ctx context.Context, sessionID uuid.UUID) ([]model.Incident, error) {
	return s.incidentRepo.ListBySession(ctx, sessionID)
}
