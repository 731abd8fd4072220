package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/elms-backend/internal/model"
)

// ErrDuplicateName is returned when a venue or room insert hits the unique
// name constraint.
var ErrDuplicateName = errors.New("name already in use")

// VenueRepository handles venue and room data access.
type VenueRepository struct {
	pool *pgxpool.Pool
}

// NewVenueRepository creates a new VenueRepository.
func NewVenueRepository(pool *pgxpool.Pool) *VenueRepository {
	return &VenueRepository{pool: pool}
}

// CreateVenue inserts a new venue.
func (r *VenueRepository) CreateVenue(ctx context.Context, v *model.Venue) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO venues (name, location, capacity)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		v.Name, v.Location, v.Capacity,
	).Scan(&v.ID, &v.CreatedAt)
	return mapDuplicate(err)
}

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateName
	}
	return err
}

// GetVenueByID retrieves a venue by its identifier.
func (r *VenueRepository) GetVenueByID(ctx context.Context, id uuid.UUID) (*model.Venue, error) {
	v := &model.Venue{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, location, capacity, created_at
		 FROM venues
		 WHERE id = $1`, id,
	).Scan(&v.ID, &v.Name, &v.Location, &v.Capacity, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// EnsureVenue resolves a venue by name, creating it when absent. Bulk imports
// reference venues by name only, so unknown names become ad hoc venue records
// with zero aggregate capacity.
func (r *VenueRepository) EnsureVenue(ctx context.Context, name, location string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO venues (name, location, capacity)
		 VALUES ($1, $2, 0)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		name, location,
	).Scan(&id)
	return id, err
}

// ListVenues retrieves all venues ordered by name.
func (r *VenueRepository) ListVenues(ctx context.Context) ([]model.Venue, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, location, capacity, created_at
		 FROM venues
		 ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Location, &v.Capacity, &v.CreatedAt); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// CreateRoom inserts a new room under a venue.
func (r *VenueRepository) CreateRoom(ctx context.Context, room *model.Room) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO rooms (venue_id, name, capacity)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		room.VenueID, room.Name, room.Capacity,
	).Scan(&room.ID)
	return mapDuplicate(err)
}

// ListRoomsByVenue retrieves all rooms belonging to a venue.
func (r *VenueRepository) ListRoomsByVenue(ctx context.Context, venueID uuid.UUID) ([]model.Room, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, venue_id, name, capacity
		 FROM rooms
		 WHERE venue_id = $1
		 ORDER BY name ASC`, venueID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.VenueID, &room.Name, &room.Capacity); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// GetRoomsByIDs resolves a set of room identifiers to their records. Missing
// identifiers are simply absent from the result; the caller decides whether
// that is an error.
func (r *VenueRepository) GetRoomsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Room, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]model.Room{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, venue_id, name, capacity
		 FROM rooms
		 WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make(map[uuid.UUID]model.Room, len(ids))
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.VenueID, &room.Name, &room.Capacity); err != nil {
			return nil, err
		}
		rooms[room.ID] = room
	}
	return rooms, rows.Err()
}
