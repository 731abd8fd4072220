package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/elms-backend/internal/model"
)

// IncidentRepository handles exam-day incident data access.
type IncidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository creates a new IncidentRepository.
func NewIncidentRepository(pool *pgxpool.Pool) *IncidentRepository {
	return &IncidentRepository{pool: pool}
}

// Create files an incident report against a session.
func (r *IncidentRepository) Create(ctx context.Context, inc *model.Incident) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO incidents (session_id, reported_by, severity, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, reported_at`,
		inc.SessionID, inc.ReportedBy, inc.Severity, inc.Description,
	).Scan(&inc.ID, &inc.ReportedAt)
}

// ListBySession retrieves a session's incidents, newest first.
func (r *IncidentRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Incident, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, reported_by, severity, description, reported_at
		 FROM incidents
		 WHERE session_id = $1
		 ORDER BY reported_at DESC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []model.Incident
	for rows.Next() {
		var inc model.Incident
		if err := rows.Scan(&inc.ID, &inc.SessionID, &inc.ReportedBy, &inc.Severity,
			&inc.Description, &inc.ReportedAt); err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
	}
	return incidents, rows.Err()
}
