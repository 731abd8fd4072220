package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/elms-backend/internal/model"
)

// ErrAlreadyCancelled is returned when a cancel targets a session that is
// already in the CANCELLED state.
var ErrAlreadyCancelled = errors.New("session already cancelled")

// sessionColumns is the shared projection for exam session queries. Dates and
// clock times come back as the wire strings the scheduling contract uses.
const sessionColumns = `
	es.id, es.timetable_id, es.course_code, es.course_name,
	to_char(es.exam_date, 'YYYY-MM-DD'),
	to_char(es.start_time, 'HH24:MI'), to_char(es.end_time, 'HH24:MI'),
	es.duration_minutes, es.venue_id, v.name,
	es.status, es.session_status, es.expected_attendance,
	es.capacity_exceeded, es.level, COALESCE(es.notes, ''),
	es.created_at, es.updated_at`

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := row.Scan(
		&s.ID, &s.TimetableID, &s.CourseCode, &s.CourseName,
		&s.ExamDate, &s.StartTime, &s.EndTime,
		&s.DurationMinutes, &s.VenueID, &s.VenueName,
		&s.Status, &s.SessionStatus, &s.ExpectedAttendance,
		&s.CapacityExceeded, &s.Level, &s.Notes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves one session with its venue name and room allocations.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions es
		 JOIN venues v ON es.venue_id = v.id
		 WHERE es.id = $1`, id,
	))
	if err != nil {
		return nil, err
	}

	rooms, err := r.loadRooms(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	s.Rooms = rooms[id]
	if s.Rooms == nil {
		s.Rooms = []model.SessionRoom{}
	}
	return s, nil
}

// ListByTimetable retrieves every session in a timetable with room
// allocations attached, ordered by date and start time. This is the snapshot
// the conflict validator runs against.
func (r *ExamSessionRepository) ListByTimetable(ctx context.Context, timetableID uuid.UUID) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions es
		 JOIN venues v ON es.venue_id = v.id
		 WHERE es.timetable_id = $1
		 ORDER BY es.exam_date ASC, es.start_time ASC`, timetableID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	var ids []uuid.UUID
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roomsBySession, err := r.loadRooms(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Rooms = roomsBySession[sessions[i].ID]
		if sessions[i].Rooms == nil {
			sessions[i].Rooms = []model.SessionRoom{}
		}
	}
	return sessions, nil
}

// loadRooms fetches room allocations for a set of sessions in one query.
func (r *ExamSessionRepository) loadRooms(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID][]model.SessionRoom, error) {
	result := make(map[uuid.UUID][]model.SessionRoom, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT sr.session_id, sr.room_id, rm.name, rm.capacity, sr.allocated_capacity
		 FROM session_rooms sr
		 JOIN rooms rm ON sr.room_id = rm.id
		 WHERE sr.session_id = ANY($1)
		 ORDER BY rm.name ASC`, sessionIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID uuid.UUID
		var room model.SessionRoom
		if err := rows.Scan(&sessionID, &room.RoomID, &room.RoomName, &room.RoomCapacity, &room.AllocatedCapacity); err != nil {
			return nil, err
		}
		result[sessionID] = append(result[sessionID], room)
	}
	return result, rows.Err()
}

// Create inserts a session and its room allocations in one transaction.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertSession(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreateBatch inserts many sessions atomically. Used by the bulk import
// commit: either every row lands or none does.
func (r *ExamSessionRepository) CreateBatch(ctx context.Context, sessions []*model.ExamSession) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range sessions {
		if err := insertSession(ctx, tx, s); err != nil {
			return fmt.Errorf("insert session %s: %w", s.CourseCode, err)
		}
	}
	return tx.Commit(ctx)
}

func insertSession(ctx context.Context, tx pgx.Tx, s *model.ExamSession) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO exam_sessions
			(timetable_id, course_code, course_name, exam_date, start_time, end_time,
			 duration_minutes, venue_id, status, session_status, expected_attendance,
			 capacity_exceeded, level, notes)
		 VALUES ($1, $2, $3, $4::date, $5::time, $6::time, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, created_at, updated_at`,
		s.TimetableID, s.CourseCode, s.CourseName, s.ExamDate, s.StartTime, s.EndTime,
		s.DurationMinutes, s.VenueID, s.Status, s.SessionStatus, s.ExpectedAttendance,
		s.CapacityExceeded, s.Level, s.Notes,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return err
	}
	return replaceRooms(ctx, tx, s.ID, s.Rooms)
}

func replaceRooms(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, rooms []model.SessionRoom) error {
	if _, err := tx.Exec(ctx, `DELETE FROM session_rooms WHERE session_id = $1`, sessionID); err != nil {
		return err
	}
	for _, room := range rooms {
		_, err := tx.Exec(ctx,
			`INSERT INTO session_rooms (session_id, room_id, allocated_capacity)
			 VALUES ($1, $2, $3)`,
			sessionID, room.RoomID, room.AllocatedCapacity,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Update rewrites a session's schedulable fields and room allocations.
func (r *ExamSessionRepository) Update(ctx context.Context, s *model.ExamSession) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET course_code = $1, course_name = $2, exam_date = $3::date,
		     start_time = $4::time, end_time = $5::time, duration_minutes = $6,
		     venue_id = $7, status = $8, expected_attendance = $9,
		     capacity_exceeded = $10, level = $11, notes = $12, updated_at = NOW()
		 WHERE id = $13`,
		s.CourseCode, s.CourseName, s.ExamDate, s.StartTime, s.EndTime, s.DurationMinutes,
		s.VenueID, s.Status, s.ExpectedAttendance, s.CapacityExceeded, s.Level, s.Notes, s.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if err := replaceRooms(ctx, tx, s.ID, s.Rooms); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete hard-deletes a session and, via cascade, its room allocations and
// assignments. Callers only do this for drafts nothing references yet;
// anything live is soft-cancelled instead.
func (r *ExamSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exam_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// TransitionSessionStatus moves a session between logistics states with a
// guard on the expected current state, so two racing transitions cannot both
// win. Returns pgx.ErrNoRows when the session is not in the expected state.
func (r *ExamSessionRepository) TransitionSessionStatus(ctx context.Context, id uuid.UUID, from, to model.SessionStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET session_status = $1, updated_at = NOW()
		 WHERE id = $2 AND session_status = $3`,
		to, id, from,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Cancel soft-cancels a session. Registrations referencing it are kept; the
// row is never deleted. Cancelling twice returns ErrAlreadyCancelled so the
// caller can tell it apart from a session that never existed.
func (r *ExamSessionRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $1, session_status = $2, updated_at = NOW()
		 WHERE id = $3 AND session_status <> $2`,
		model.ScheduleStatusCancelled, model.SessionStatusCancelled, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM exam_sessions WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrAlreadyCancelled
		}
		return pgx.ErrNoRows
	}
	return nil
}

// CompleteOverdue transitions every IN_PROGRESS session whose scheduled end
// has passed in the given timezone. Returns the completed session IDs.
func (r *ExamSessionRepository) CompleteOverdue(ctx context.Context, timezone string) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE exam_sessions
		 SET session_status = $1, updated_at = NOW()
		 WHERE session_status = $2
		   AND (exam_date + end_time) < (NOW() AT TIME ZONE $3)
		 RETURNING id`,
		model.SessionStatusCompleted, model.SessionStatusInProgress, timezone,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
