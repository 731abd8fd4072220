package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/elms-backend/internal/engine"
	"github.com/stemsi/elms-backend/internal/model"
	"github.com/stemsi/elms-backend/internal/repository"
)

var (
	// ErrSessionNotDraft is returned when a hard delete targets a session
	// that already left the DRAFT state.
	ErrSessionNotDraft = errors.New("only draft sessions can be deleted")
	// ErrSessionInUse is returned when a hard delete targets a session that
	// students are registered for.
	ErrSessionInUse = errors.New("session has registrations")
	// ErrSessionCancelled is returned when an edit targets a cancelled
	// session. Cancelled sessions are frozen as an audit record.
	ErrSessionCancelled = errors.New("session is cancelled")
)

// TimetableService handles timetable editing: scheduling, validating and
// cancelling exam sessions. All conflict decisions are delegated to the
// engine; this service only assembles the snapshot the engine runs against
// and persists sessions the engine accepted.
type TimetableService struct {
	timetableRepo   *repository.TimetableRepository
	sessionRepo     *repository.ExamSessionRepository
	venueRepo       *repository.VenueRepository
	invigilatorRepo *repository.InvigilatorRepository
	regRepo         *repository.RegistrationRepository
	log             zerolog.Logger
}

// NewTimetableService creates a new TimetableService.
func NewTimetableService(
	timetableRepo *repository.TimetableRepository,
	sessionRepo *repository.ExamSessionRepository,
	venueRepo *repository.VenueRepository,
	invigilatorRepo *repository.InvigilatorRepository,
	regRepo *repository.RegistrationRepository,
	log zerolog.Logger,
) *TimetableService {
	return &TimetableService{
		timetableRepo:   timetableRepo,
		sessionRepo:     sessionRepo,
		venueRepo:       venueRepo,
		invigilatorRepo: invigilatorRepo,
		regRepo:         regRepo,
		log:             log.With().Str("component", "timetable_service").Logger(),
	}
}

// CreateTimetable opens a new timetable.
func (s *TimetableService) CreateTimetable(ctx context.Context, t *model.Timetable) error {
	if err := s.timetableRepo.Create(ctx, t); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// ListTimetables returns all timetables.
func (s *TimetableService) ListTimetables(ctx context.Context) ([]model.Timetable, error) {
	return s.timetableRepo.List(ctx)
}

// GetSession retrieves one session with rooms and assignments attached.
func (s *TimetableService) GetSession(ctx context.Context, sessionID uuid.UUID) (*model.ExamSession, []model.InvigilatorAssignment, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	assignments, err := s.invigilatorRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("list assignments: %w", err)
	}
	return session, assignments, nil
}

// ListSessions returns every session in a timetable.
func (s *TimetableService) ListSessions(ctx context.Context, timetableID uuid.UUID) ([]model.ExamSession, error) {
	return s.sessionRepo.ListByTimetable(ctx, timetableID)
}

// sessionFromCreate maps a create request onto a fresh session. Duration is
// derived from the time window, never taken from the client.
func sessionFromCreate(timetableID uuid.UUID, req *model.CreateSessionRequest) *model.ExamSession {
	session := &model.ExamSession{
		TimetableID:        timetableID,
		CourseCode:         req.CourseCode,
		CourseName:         req.CourseName,
		ExamDate:           req.ExamDate,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		VenueID:            req.VenueID,
		ExpectedAttendance: req.ExpectedAttendance,
		Level:              req.Level,
		Notes:              req.Notes,
		Status:             model.ScheduleStatusScheduled,
		SessionStatus:      model.SessionStatusNotStarted,
	}
	if req.Draft {
		session.Status = model.ScheduleStatusDraft
	}
	for _, room := range req.Rooms {
		session.Rooms = append(session.Rooms, model.SessionRoom{
			RoomID:            room.RoomID,
			AllocatedCapacity: room.AllocatedCapacity,
		})
	}
	return session
}

// ValidateSession runs the full engine validation for a candidate session
// without persisting anything. excludeID removes the session's previous
// incarnation from the snapshot when validating an edit.
func (s *TimetableService) ValidateSession(ctx context.Context, session *model.ExamSession, invigilators []string, excludeID uuid.UUID) (engine.ValidationResult, error) {
	result := engine.NewResult()

	interval, err := engine.NewInterval(session.ExamDate, session.StartTime, session.EndTime)
	if err != nil {
		var invErr *engine.InvalidIntervalError
		if errors.As(err, &invErr) {
			result.AddError("Invalid time window: " + invErr.Reason)
			return result, nil
		}
		return result, err
	}
	session.DurationMinutes = interval.Minutes()

	// Rooms must exist before status leaves DRAFT.
	if session.Status != model.ScheduleStatusDraft && len(session.Rooms) == 0 {
		result.AddError("At least one room must be assigned before scheduling")
	}

	if err := s.resolveRooms(ctx, session, &result); err != nil {
		return result, err
	}

	others, err := s.snapshotSessions(ctx, session.TimetableID, excludeID)
	if err != nil {
		return result, err
	}
	assignments, err := s.snapshotAssignments(ctx, session.TimetableID)
	if err != nil {
		return result, err
	}

	result.Merge(engine.ValidateSession(engine.Candidate{
		Session:          session,
		Interval:         interval,
		Invigilators:     invigilators,
		OtherSessions:    others,
		Assignments:      assignments,
		ExcludeSessionID: excludeID,
	}))
	return result, nil
}

// resolveRooms fills each allocation's declared room capacity from the rooms
// table and rejects rooms that do not exist or belong to another venue.
func (s *TimetableService) resolveRooms(ctx context.Context, session *model.ExamSession, result *engine.ValidationResult) error {
	if len(session.Rooms) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(session.Rooms))
	for _, room := range session.Rooms {
		ids = append(ids, room.RoomID)
	}
	rooms, err := s.venueRepo.GetRoomsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve rooms: %w", err)
	}

	for i, allocation := range session.Rooms {
		room, ok := rooms[allocation.RoomID]
		if !ok {
			result.AddError(fmt.Sprintf("Room %s does not exist", allocation.RoomID))
			continue
		}
		if room.VenueID != session.VenueID {
			result.AddError(fmt.Sprintf("Room %s belongs to a different venue", room.Name))
		}
		session.Rooms[i].RoomName = room.Name
		session.Rooms[i].RoomCapacity = room.Capacity
	}
	return nil
}

// snapshotSessions builds the engine's view of the other sessions in the
// timetable. Cancelled sessions hold no resources and are skipped.
func (s *TimetableService) snapshotSessions(ctx context.Context, timetableID, excludeID uuid.UUID) ([]engine.SessionRef, error) {
	sessions, err := s.sessionRepo.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	refs := make([]engine.SessionRef, 0, len(sessions))
	for _, other := range sessions {
		if other.ID == excludeID || other.SessionStatus == model.SessionStatusCancelled {
			continue
		}
		interval, err := engine.NewInterval(other.ExamDate, other.StartTime, other.EndTime)
		if err != nil {
			s.log.Warn().Err(err).Str("session_id", other.ID.String()).Msg("Skipping session with unparseable interval")
			continue
		}
		ref := engine.SessionRef{
			SessionID:  other.ID,
			CourseCode: other.CourseCode,
			VenueID:    other.VenueID,
			VenueName:  other.VenueName,
			Interval:   interval,
		}
		for _, room := range other.Rooms {
			ref.RoomIDs = append(ref.RoomIDs, room.RoomID)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// snapshotAssignments builds the engine's view of every live invigilator
// assignment across the timetable.
func (s *TimetableService) snapshotAssignments(ctx context.Context, timetableID uuid.UUID) ([]engine.AssignmentRef, error) {
	details, err := s.invigilatorRepo.ListDetailsByTimetable(ctx, timetableID)
	if err != nil {
		return nil, fmt.Errorf("list assignment details: %w", err)
	}
	return assignmentRefs(details), nil
}

func assignmentRefs(details []repository.AssignmentDetail) []engine.AssignmentRef {
	refs := make([]engine.AssignmentRef, 0, len(details))
	for _, d := range details {
		interval, err := engine.NewInterval(d.ExamDate, d.StartTime, d.EndTime)
		if err != nil {
			continue
		}
		refs = append(refs, engine.AssignmentRef{
			InvigilatorID: d.InvigilatorID,
			SessionID:     d.SessionID,
			CourseCode:    d.CourseCode,
			VenueName:     d.VenueName,
			Interval:      interval,
		})
	}
	return refs
}

// ValidateCandidate runs the full validation for a proposed session payload
// without persisting anything. excludeID lets the dry run stand in for an
// edit of an existing session.
func (s *TimetableService) ValidateCandidate(ctx context.Context, timetableID uuid.UUID, req *model.CreateSessionRequest, excludeID uuid.UUID) (engine.ValidationResult, error) {
	if _, err := s.timetableRepo.GetByID(ctx, timetableID); err != nil {
		return engine.ValidationResult{}, fmt.Errorf("get timetable: %w", err)
	}
	session := sessionFromCreate(timetableID, req)
	return s.ValidateSession(ctx, session, req.Invigilators, excludeID)
}

// CreateSession validates a proposed session against the timetable and
// persists it when clean. The returned result carries every error and
// warning whether or not the session was created.
func (s *TimetableService) CreateSession(ctx context.Context, timetableID uuid.UUID, req *model.CreateSessionRequest) (*model.ExamSession, engine.ValidationResult, error) {
	if _, err := s.timetableRepo.GetByID(ctx, timetableID); err != nil {
		return nil, engine.ValidationResult{}, fmt.Errorf("get timetable: %w", err)
	}

	session := sessionFromCreate(timetableID, req)
	result, err := s.ValidateSession(ctx, session, req.Invigilators, uuid.Nil)
	if err != nil {
		return nil, result, err
	}
	if !result.IsValid {
		return nil, result, nil
	}

	// The stored flag is display-only and recorded from the live computation.
	session.CapacityExceeded = session.ExpectedAttendance > engine.AggregateCapacity(session).TotalCapacity

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, result, fmt.Errorf("create session: %w", err)
	}

	for _, invigilatorID := range req.Invigilators {
		assignment := &model.InvigilatorAssignment{InvigilatorID: invigilatorID, SessionID: session.ID}
		if err := s.invigilatorRepo.Assign(ctx, assignment); err != nil {
			return nil, result, fmt.Errorf("assign invigilator %s: %w", invigilatorID, err)
		}
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("course", session.CourseCode).
		Str("date", session.ExamDate).
		Msg("Session scheduled")
	return session, result, nil
}

// UpdateSession applies a conflict-free edit. The candidate is revalidated
// against the timetable with its previous incarnation excluded, so an
// unchanged schedule never conflicts with itself.
func (s *TimetableService) UpdateSession(ctx context.Context, sessionID uuid.UUID, req *model.UpdateSessionRequest) (*model.ExamSession, engine.ValidationResult, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, engine.ValidationResult{}, err
	}
	if session.Status == model.ScheduleStatusCancelled {
		return nil, engine.ValidationResult{}, ErrSessionCancelled
	}

	applyUpdate(session, req)

	invigilators, err := s.invigilatorRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, engine.ValidationResult{}, fmt.Errorf("list assignments: %w", err)
	}
	invigilatorIDs := make([]string, 0, len(invigilators))
	for _, a := range invigilators {
		invigilatorIDs = append(invigilatorIDs, a.InvigilatorID)
	}

	result, err := s.ValidateSession(ctx, session, invigilatorIDs, sessionID)
	if err != nil {
		return nil, result, err
	}
	if !result.IsValid {
		return nil, result, nil
	}

	session.CapacityExceeded = session.ExpectedAttendance > engine.AggregateCapacity(session).TotalCapacity

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, result, fmt.Errorf("update session: %w", err)
	}
	return session, result, nil
}

func applyUpdate(session *model.ExamSession, req *model.UpdateSessionRequest) {
	if req.CourseCode != "" {
		session.CourseCode = req.CourseCode
	}
	if req.CourseName != "" {
		session.CourseName = req.CourseName
	}
	if req.ExamDate != "" {
		session.ExamDate = req.ExamDate
	}
	if req.StartTime != "" {
		session.StartTime = req.StartTime
	}
	if req.EndTime != "" {
		session.EndTime = req.EndTime
	}
	if req.VenueID != nil {
		session.VenueID = *req.VenueID
	}
	if req.Rooms != nil {
		session.Rooms = session.Rooms[:0]
		for _, room := range req.Rooms {
			session.Rooms = append(session.Rooms, model.SessionRoom{
				RoomID:            room.RoomID,
				AllocatedCapacity: room.AllocatedCapacity,
			})
		}
	}
	if req.ExpectedAttendance != nil {
		session.ExpectedAttendance = *req.ExpectedAttendance
	}
	if req.Level != nil {
		session.Level = req.Level
	}
	if req.Notes != nil {
		session.Notes = *req.Notes
	}
}

// DeleteSession hard-deletes a draft that never made it onto the timetable.
// Anything past DRAFT, or holding registrations, must be cancelled instead so
// the audit trail survives.
func (s *TimetableService) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != model.ScheduleStatusDraft {
		return ErrSessionNotDraft
	}
	registered, err := s.regRepo.HasRegistrations(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("check registrations: %w", err)
	}
	if registered {
		return ErrSessionInUse
	}
	return s.sessionRepo.Delete(ctx, sessionID)
}

// CancelSession soft-cancels a session and releases its invigilators.
// Registrations are kept as an audit trail; the session row is never deleted.
func (s *TimetableService) CancelSession(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessionRepo.Cancel(ctx, sessionID); err != nil {
		return err
	}
	if err := s.invigilatorRepo.UnassignAll(ctx, sessionID); err != nil {
		return fmt.Errorf("release invigilators: %w", err)
	}
	s.log.Info().Str("session_id", sessionID.String()).Msg("Session cancelled")
	return nil
}
