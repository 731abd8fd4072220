package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/elms-backend/internal/engine"
	"github.com/stemsi/elms-backend/internal/model"
	"github.com/stemsi/elms-backend/internal/repository"
)

// ErrBatchInvalid is returned when a commit is attempted while any row in the
// batch is still invalid. The commit is all-or-nothing: there is no partial
// submission of only the valid rows.
var ErrBatchInvalid = errors.New("batch contains invalid rows")

// BulkImportService validates batches of candidate sessions parsed from an
// uploaded tabular file and commits them atomically once every row is clean.
// Rows are ephemeral; only committed sessions are persisted.
type BulkImportService struct {
	timetableRepo *repository.TimetableRepository
	sessionRepo   *repository.ExamSessionRepository
	venueRepo     *repository.VenueRepository
	log           zerolog.Logger
}

// NewBulkImportService creates a new BulkImportService.
func NewBulkImportService(
	timetableRepo *repository.TimetableRepository,
	sessionRepo *repository.ExamSessionRepository,
	venueRepo *repository.VenueRepository,
	log zerolog.Logger,
) *BulkImportService {
	return &BulkImportService{
		timetableRepo: timetableRepo,
		sessionRepo:   sessionRepo,
		venueRepo:     venueRepo,
		log:           log.With().Str("component", "bulkimport_service").Logger(),
	}
}

// ValidateRows runs the full validation pass over a batch: per-row field
// checks, pairwise cross-row conflicts inside the batch, and each row against
// the timetable's existing sessions. Rows are mutated in place; the summary
// is recomputed from their final state.
func (s *BulkImportService) ValidateRows(ctx context.Context, timetableID uuid.UUID, rows []*engine.ImportRow) (engine.BatchSummary, error) {
	if _, err := s.timetableRepo.GetByID(ctx, timetableID); err != nil {
		return engine.BatchSummary{}, fmt.Errorf("get timetable: %w", err)
	}

	engine.ValidateBatch(rows)

	existing, err := s.sessionRepo.ListByTimetable(ctx, timetableID)
	if err != nil {
		return engine.BatchSummary{}, fmt.Errorf("list sessions: %w", err)
	}
	s.checkAgainstExisting(rows, existing)

	return engine.Summarize(rows), nil
}

// checkAgainstExisting compares each valid row with the sessions already in
// the timetable: a duplicate course on the same day is an error, a venue
// claimed at an overlapping time is advisory.
func (s *BulkImportService) checkAgainstExisting(rows []*engine.ImportRow, existing []model.ExamSession) {
	for _, row := range rows {
		if row.Status != engine.RowStatusValid {
			continue
		}
		rowInterval, err := row.Interval()
		if err != nil {
			continue
		}
		for _, session := range existing {
			if session.SessionStatus == model.SessionStatusCancelled {
				continue
			}
			sessionInterval, err := engine.NewInterval(session.ExamDate, session.StartTime, session.EndTime)
			if err != nil {
				continue
			}

			if row.CourseCode == session.CourseCode && row.ExamDate == session.ExamDate {
				row.MarkConflict("courseCode", fmt.Sprintf(
					"Course %s is already scheduled on %s", row.CourseCode, row.ExamDate))
				continue
			}
			if row.VenueName == session.VenueName && rowInterval.Overlaps(sessionInterval) {
				row.AddVenueWarning(fmt.Sprintf(
					"Venue %s already hosts %s at %s %s", row.VenueName,
					session.CourseCode, sessionInterval.Date, sessionInterval.TimeRange()))
			}
		}
	}
}

// Commit re-validates the batch and inserts every row's session in one
// transaction. Committed sessions start as drafts: rooms are allocated by an
// editor afterwards, and scheduling them runs the normal conflict validation.
func (s *BulkImportService) Commit(ctx context.Context, timetableID uuid.UUID, rows []*engine.ImportRow) ([]*model.ExamSession, engine.BatchSummary, error) {
	summary, err := s.ValidateRows(ctx, timetableID, rows)
	if err != nil {
		return nil, summary, err
	}
	if summary.InvalidRows > 0 {
		return nil, summary, ErrBatchInvalid
	}

	sessions := make([]*model.ExamSession, 0, len(rows))
	venueIDs := make(map[string]uuid.UUID)
	for _, row := range rows {
		venueID, ok := venueIDs[row.VenueName]
		if !ok {
			venueID, err = s.venueRepo.EnsureVenue(ctx, row.VenueName, row.VenueLocation)
			if err != nil {
				return nil, summary, fmt.Errorf("ensure venue %s: %w", row.VenueName, err)
			}
			venueIDs[row.VenueName] = venueID
		}

		session, err := sessionFromRow(timetableID, venueID, row)
		if err != nil {
			return nil, summary, fmt.Errorf("row %d: %w", row.RowNumber, err)
		}
		sessions = append(sessions, session)
	}

	if err := s.sessionRepo.CreateBatch(ctx, sessions); err != nil {
		return nil, summary, fmt.Errorf("commit batch: %w", err)
	}

	s.log.Info().
		Str("timetable_id", timetableID.String()).
		Int("sessions", len(sessions)).
		Msg("Bulk import committed")
	return sessions, summary, nil
}

// sessionFromRow maps a validated row onto a draft session.
func sessionFromRow(timetableID, venueID uuid.UUID, row *engine.ImportRow) (*model.ExamSession, error) {
	interval, err := row.Interval()
	if err != nil {
		return nil, err
	}

	session := &model.ExamSession{
		TimetableID:     timetableID,
		CourseCode:      row.CourseCode,
		CourseName:      row.CourseName,
		ExamDate:        row.ExamDate,
		StartTime:       row.StartTime,
		EndTime:         interval.EndClock(),
		DurationMinutes: interval.Minutes(),
		VenueID:         venueID,
		Status:          model.ScheduleStatusDraft,
		SessionStatus:   model.SessionStatusNotStarted,
		Rooms:           []model.SessionRoom{},
		Notes:           row.Notes,
	}
	if row.SpecialRequirements != "" {
		if session.Notes != "" {
			session.Notes += "\n"
		}
		session.Notes += row.SpecialRequirements
	}
	if row.Level != "" {
		level, err := strconv.Atoi(row.Level)
		if err != nil {
			return nil, fmt.Errorf("parse level: %w", err)
		}
		session.Level = &level
	}
	return session, nil
}
