package model

import (
	"time"

	"github.com/google/uuid"
)

// Venue is a physical examination location owning zero or more rooms.
type Venue struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

// Room is one seating room inside a venue.
type Room struct {
	ID       uuid.UUID `json:"id"`
	VenueID  uuid.UUID `json:"venue_id"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
}

// CreateVenueRequest is the payload for registering a venue.
type CreateVenueRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=255"`
	Location string `json:"location" binding:"omitempty,max=255"`
	Capacity int    `json:"capacity" binding:"gte=0"`
}

// CreateRoomRequest is the payload for adding a room to a venue.
type CreateRoomRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=64"`
	Capacity int    `json:"capacity" binding:"gte=0"`
}
