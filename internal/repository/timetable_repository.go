package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/elms-backend/internal/model"
)

// TimetableRepository handles timetable data access.
type TimetableRepository struct {
	pool *pgxpool.Pool
}

// NewTimetableRepository creates a new TimetableRepository.
func NewTimetableRepository(pool *pgxpool.Pool) *TimetableRepository {
	return &TimetableRepository{pool: pool}
}

// Create inserts a new timetable.
func (r *TimetableRepository) Create(ctx context.Context, t *model.Timetable) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO timetables (name, academic_term)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		t.Name, t.AcademicTerm,
	).Scan(&t.ID, &t.CreatedAt)
}

// GetByID retrieves a timetable by its identifier.
func (r *TimetableRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Timetable, error) {
	t := &model.Timetable{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, academic_term, created_at
		 FROM timetables
		 WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.AcademicTerm, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List retrieves all timetables, newest first.
func (r *TimetableRepository) List(ctx context.Context) ([]model.Timetable, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, academic_term, created_at
		 FROM timetables
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var timetables []model.Timetable
	for rows.Next() {
		var t model.Timetable
		if err := rows.Scan(&t.ID, &t.Name, &t.AcademicTerm, &t.CreatedAt); err != nil {
			return nil, err
		}
		timetables = append(timetables, t)
	}
	return timetables, rows.Err()
}
