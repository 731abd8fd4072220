package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/elms-backend/internal/model"
	"github.com/stemsi/elms-backend/internal/repository"
	"github.com/stemsi/elms-backend/internal/response"
	"github.com/stemsi/elms-backend/internal/service"
	"github.com/stemsi/elms-backend/internal/validator"
)

// VenueHandler handles venue and room endpoints.
type VenueHandler struct {
	venueService *service.VenueService
}

// NewVenueHandler creates a new VenueHandler.
func NewVenueHandler(venueService *service.VenueService) *VenueHandler {
	return &VenueHandler{venueService: venueService}
}

// CreateVenue godoc
// POST /api/v1/venues
func (h *VenueHandler) CreateVenue(c *gin.Context) {
	var req model.CreateVenueRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	venue, err := h.venueService.CreateVenue(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"venue": venue})
}

// ListVenues godoc
// GET /api/v1/venues
func (h *VenueHandler) ListVenues(c *gin.Context) {
	venues, err := h.venueService.ListVenues(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"venues": venues})
}

// GetVenue godoc
// GET /api/v1/venues/:venue_id
func (h *VenueHandler) GetVenue(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("venue_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	venue, rooms, err := h.venueService.GetVenue(c.Request.Context(), venueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"venue": venue, "rooms": rooms})
}

// CreateRoom godoc
// POST /api/v1/venues/:venue_id/rooms
func (h *VenueHandler) CreateRoom(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("venue_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateRoomRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	room, err := h.venueService.CreateRoom(c.Request.Context(), venueID, &req)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, repository.ErrDuplicateName):
			response.Fail(c, http.StatusConflict, response.ErrConflict)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"room": room})
}

// ListRooms godoc
// GET /api/v1/venues/:venue_id/rooms
func (h *VenueHandler) ListRooms(c *gin.Context) {
	venueID, err := uuid.Parse(c.Param("venue_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	rooms, err := h.venueService.ListRooms(c.Request.Context(), venueID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rooms": rooms})
}
