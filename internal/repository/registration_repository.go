package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/elms-backend/internal/model"
)

// SessionCounts is the attendance picture of one session.
type SessionCounts struct {
	Registered       int `json:"registered"`
	CheckedIn        int `json:"checked_in"`
	ScriptsSubmitted int `json:"scripts_submitted"`
}

// RegistrationRepository handles student registration data access.
// Registrations are an audit trail: rows are created ahead of the exam and
// mutated by check-in and script submission, never deleted.
type RegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository creates a new RegistrationRepository.
func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

// RegisterBatch registers students for a session ahead of the exam.
// Already-registered students are skipped. Returns the number of new rows.
func (r *RegistrationRepository) RegisterBatch(ctx context.Context, sessionID uuid.UUID, studentIDs []string) (int, error) {
	created := 0
	for _, studentID := range studentIDs {
		tag, err := r.pool.Exec(ctx,
			`INSERT INTO student_registrations (student_id, session_id)
			 VALUES ($1, $2)
			 ON CONFLICT (student_id, session_id) DO NOTHING`,
			studentID, sessionID,
		)
		if err != nil {
			return created, err
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

// GetByStudentAndSession retrieves one registration.
func (r *RegistrationRepository) GetByStudentAndSession(ctx context.Context, sessionID uuid.UUID, studentID string) (*model.StudentRegistration, error) {
	reg := &model.StudentRegistration{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, student_id, session_id, is_present, script_submitted, seat_number, check_in_time, created_at
		 FROM student_registrations
		 WHERE session_id = $1 AND student_id = $2`, sessionID, studentID,
	).Scan(&reg.ID, &reg.StudentID, &reg.SessionID, &reg.IsPresent, &reg.ScriptSubmitted,
		&reg.SeatNumber, &reg.CheckInTime, &reg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// CheckInAt marks a registration present with the moment the student passed
// the hall door. Check-ins are queued before they land here, so the event
// time is carried through rather than taken from NOW(). Repeating a check-in
// keeps the first check_in_time (idempotent). Returns pgx.ErrNoRows when the
// student is not registered for the session.
func (r *RegistrationRepository) CheckInAt(ctx context.Context, sessionID uuid.UUID, studentID, seatNumber string, at time.Time) (*model.StudentRegistration, error) {
	reg := &model.StudentRegistration{}
	err := r.pool.QueryRow(ctx,
		`UPDATE student_registrations
		 SET is_present = TRUE,
		     check_in_time = COALESCE(check_in_time, $4),
		     seat_number = COALESCE(NULLIF($3, ''), seat_number)
		 WHERE session_id = $1 AND student_id = $2
		 RETURNING id, student_id, session_id, is_present, script_submitted, seat_number, check_in_time, created_at`,
		sessionID, studentID, seatNumber, at,
	).Scan(&reg.ID, &reg.StudentID, &reg.SessionID, &reg.IsPresent, &reg.ScriptSubmitted,
		&reg.SeatNumber, &reg.CheckInTime, &reg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// SubmitScript records a script hand-in. A submission implies presence, so
// is_present is set alongside it when check-in never happened.
func (r *RegistrationRepository) SubmitScript(ctx context.Context, sessionID uuid.UUID, studentID string) (*model.StudentRegistration, error) {
	reg := &model.StudentRegistration{}
	err := r.pool.QueryRow(ctx,
		`UPDATE student_registrations
		 SET script_submitted = TRUE,
		     is_present = TRUE,
		     check_in_time = COALESCE(check_in_time, NOW())
		 WHERE session_id = $1 AND student_id = $2
		 RETURNING id, student_id, session_id, is_present, script_submitted, seat_number, check_in_time, created_at`,
		sessionID, studentID,
	).Scan(&reg.ID, &reg.StudentID, &reg.SessionID, &reg.IsPresent, &reg.ScriptSubmitted,
		&reg.SeatNumber, &reg.CheckInTime, &reg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// ListBySession retrieves one page of a session's registrations, plus the
// total count for pagination.
func (r *RegistrationRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]model.StudentRegistration, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM student_registrations WHERE session_id = $1`, sessionID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, session_id, is_present, script_submitted, seat_number, check_in_time, created_at
		 FROM student_registrations
		 WHERE session_id = $1
		 ORDER BY student_id ASC
		 LIMIT $2 OFFSET $3`, sessionID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var regs []model.StudentRegistration
	for rows.Next() {
		var reg model.StudentRegistration
		if err := rows.Scan(&reg.ID, &reg.StudentID, &reg.SessionID, &reg.IsPresent,
			&reg.ScriptSubmitted, &reg.SeatNumber, &reg.CheckInTime, &reg.CreatedAt); err != nil {
			return nil, 0, err
		}
		regs = append(regs, reg)
	}
	return regs, total, rows.Err()
}

// CountsBySession aggregates the attendance counters of one session, the
// source of truth behind the Redis monitor cache.
func (r *RegistrationRepository) CountsBySession(ctx context.Context, sessionID uuid.UUID) (SessionCounts, error) {
	var counts SessionCounts
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_present),
		        COUNT(*) FILTER (WHERE script_submitted)
		 FROM student_registrations
		 WHERE session_id = $1`, sessionID,
	).Scan(&counts.Registered, &counts.CheckedIn, &counts.ScriptsSubmitted)
	return counts, err
}

// HasRegistrations reports whether any registration references the session.
// Sessions with registrations are never hard-deleted, only soft-cancelled.
func (r *RegistrationRepository) HasRegistrations(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM student_registrations WHERE session_id = $1)`,
		sessionID,
	).Scan(&exists)
	return exists, err
}
