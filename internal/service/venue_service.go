package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/elms-backend/internal/model"
	"github.com/stemsi/elms-backend/internal/repository"
)

// VenueService manages venues and their rooms.
type VenueService struct {
	venueRepo *repository.VenueRepository
	log       zerolog.Logger
}

// NewVenueService creates a new VenueService.
func NewVenueService(venueRepo *repository.VenueRepository, log zerolog.Logger) *VenueService {
	return &VenueService{
		venueRepo: venueRepo,
		log:       log.With().Str("component", "venue_service").Logger(),
	}
}

// CreateVenue registers a new venue.
func (s *VenueService) CreateVenue(ctx context.Context, req *model.CreateVenueRequest) (*model.Venue, error) {
	venue := &model.Venue{
		Name:     req.Name,
		Location: req.Location,
		Capacity: req.Capacity,
	}
	if err := s.venueRepo.CreateVenue(ctx, venue); err != nil {
		return nil, fmt.Errorf("create venue: %w", err)
	}
	s.log.Info().Str("venue_id", venue.ID.String()).Str("name", venue.Name).Msg("Venue created")
	return venue, nil
}

// GetVenue retrieves one venue with its rooms.
func (s *VenueService) GetVenue(ctx context.Context, id uuid.UUID) (*model.Venue, []model.Room, error) {
	venue, err := s.venueRepo.GetVenueByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get venue: %w", err)
	}
	rooms, err := s.venueRepo.ListRoomsByVenue(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list rooms: %w", err)
	}
	return venue, rooms, nil
}

// ListVenues retrieves all venues.
func (s *VenueService) ListVenues(ctx context.Context) ([]model.Venue, error) {
	return s.venueRepo.ListVenues(ctx)
}

// CreateRoom adds a room to an existing venue.
func (s *VenueService) CreateRoom(ctx context.Context, venueID uuid.UUID, req *model.CreateRoomRequest) (*model.Room, error) {
	if _, err := s.venueRepo.GetVenueByID(ctx, venueID); err != nil {
		return nil, fmt.Errorf("get venue: %w", err)
	}
	room := &model.Room{
		VenueID:  venueID,
		Name:     req.Name,
		Capacity: req.Capacity,
	}
	if err := s.venueRepo.CreateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

// ListRooms retrieves the rooms belonging to a venue.
func (s *VenueService) ListRooms(ctx context.Context, venueID uuid.UUID) ([]model.Room, error) {
	return s.venueRepo.ListRoomsByVenue(ctx, venueID)
}
