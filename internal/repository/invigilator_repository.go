package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/elms-backend/internal/model"
)

// AssignmentDetail is one invigilator assignment joined with the session
// context needed to word a conflict message.
type AssignmentDetail struct {
	InvigilatorID string    `json:"invigilator_id"`
	SessionID     uuid.UUID `json:"session_id"`
	CourseCode    string    `json:"course_code"`
	VenueName     string    `json:"venue_name"`
	ExamDate      string    `json:"exam_date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
}

// InvigilatorRepository handles invigilator assignment data access.
type InvigilatorRepository struct {
	pool *pgxpool.Pool
}

// NewInvigilatorRepository creates a new InvigilatorRepository.
func NewInvigilatorRepository(pool *pgxpool.Pool) *InvigilatorRepository {
	return &InvigilatorRepository{pool: pool}
}

// Assign binds an invigilator to a session. Re-assigning the same pair is a
// no-op rather than an error.
func (r *InvigilatorRepository) Assign(ctx context.Context, a *model.InvigilatorAssignment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO invigilator_assignments (invigilator_id, session_id)
		 VALUES ($1, $2)
		 ON CONFLICT (invigilator_id, session_id) DO UPDATE SET session_id = EXCLUDED.session_id
		 RETURNING id, assigned_at`,
		a.InvigilatorID, a.SessionID,
	).Scan(&a.ID, &a.AssignedAt)
}

// Unassign removes an invigilator from a session.
func (r *InvigilatorRepository) Unassign(ctx context.Context, sessionID uuid.UUID, invigilatorID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM invigilator_assignments
		 WHERE session_id = $1 AND invigilator_id = $2`,
		sessionID, invigilatorID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UnassignAll removes every invigilator from a session. Called on cancel.
func (r *InvigilatorRepository) UnassignAll(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM invigilator_assignments WHERE session_id = $1`, sessionID)
	return err
}

// ListBySession retrieves the assignments of one session.
func (r *InvigilatorRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.InvigilatorAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, invigilator_id, session_id, assigned_at
		 FROM invigilator_assignments
		 WHERE session_id = $1
		 ORDER BY assigned_at ASC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.InvigilatorAssignment
	for rows.Next() {
		var a model.InvigilatorAssignment
		if err := rows.Scan(&a.ID, &a.InvigilatorID, &a.SessionID, &a.AssignedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

const assignmentDetailQuery = `
	SELECT ia.invigilator_id, ia.session_id, es.course_code, v.name,
	       to_char(es.exam_date, 'YYYY-MM-DD'),
	       to_char(es.start_time, 'HH24:MI'), to_char(es.end_time, 'HH24:MI')
	FROM invigilator_assignments ia
	JOIN exam_sessions es ON ia.session_id = es.id
	JOIN venues v ON es.venue_id = v.id
	WHERE es.session_status <> 'CANCELLED'`

// ListDetailsByTimetable retrieves every live assignment across a timetable's
// sessions, the snapshot a full-session validation needs.
func (r *InvigilatorRepository) ListDetailsByTimetable(ctx context.Context, timetableID uuid.UUID) ([]AssignmentDetail, error) {
	rows, err := r.pool.Query(ctx,
		assignmentDetailQuery+` AND es.timetable_id = $1`, timetableID)
	if err != nil {
		return nil, err
	}
	return scanAssignmentDetails(rows)
}

// ListDetailsForInvigilatorOnDate retrieves one invigilator's live
// assignments on a calendar date, for the single-assignment conflict check.
func (r *InvigilatorRepository) ListDetailsForInvigilatorOnDate(ctx context.Context, invigilatorID, date string) ([]AssignmentDetail, error) {
	rows, err := r.pool.Query(ctx,
		assignmentDetailQuery+` AND ia.invigilator_id = $1 AND es.exam_date = $2::date`,
		invigilatorID, date)
	if err != nil {
		return nil, err
	}
	return scanAssignmentDetails(rows)
}

func scanAssignmentDetails(rows pgx.Rows) ([]AssignmentDetail, error) {
	defer rows.Close()

	var details []AssignmentDetail
	for rows.Next() {
		var d AssignmentDetail
		if err := rows.Scan(&d.InvigilatorID, &d.SessionID, &d.CourseCode, &d.VenueName,
			&d.ExamDate, &d.StartTime, &d.EndTime); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
