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

// TimetableHandler handles timetable editing endpoints.
type TimetableHandler struct {
	timetableService *service.TimetableService
}

// NewTimetableHandler creates a new TimetableHandler.
func NewTimetableHandler(timetableService *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetableService: timetableService}
}

// CreateTimetable godoc
// POST /api/v1/timetables
// Opens a new timetable for an examination period.
func (h *TimetableHandler) CreateTimetable(c *gin.Context) {
	var req model.CreateTimetableRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	timetable := &model.Timetable{Name: req.Name, AcademicTerm: req.AcademicTerm}
	if err := h.timetableService.CreateTimetable(c.Request.Context(), timetable); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"timetable": timetable})
}

// ListTimetables godoc
// GET /api/v1/timetables
func (h *TimetableHandler) ListTimetables(c *gin.Context) {
	timetables, err := h.timetableService.ListTimetables(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"timetables": timetables})
}

// ListSessions godoc
// GET /api/v1/timetables/:timetable_id/sessions
func (h *TimetableHandler) ListSessions(c *gin.Context) {
	timetableID, err := uuid.Parse(c.Param("timetable_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sessions, err := h.timetableService.ListSessions(c.Request.Context(), timetableID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// CreateSession godoc
// POST /api/v1/timetables/:timetable_id/sessions
// Validates and schedules a new exam session. A rejected candidate returns
// the full validation result so the editor can show every problem at once.
func (h *TimetableHandler) CreateSession(c *gin.Context) {
	timetableID, err := uuid.Parse(c.Param("timetable_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, result, err := h.timetableService.CreateSession(c.Request.Context(), timetableID, &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if !result.IsValid {
		response.FailWithData(c, http.StatusUnprocessableEntity, response.ErrScheduleConflict, gin.H{"validation": result})
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session, "validation": result})
}

// ValidateSession godoc
// POST /api/v1/timetables/:timetable_id/sessions/validate
// Dry-runs the full validation for a candidate session. Always 200: the
// verdict lives in the validation result, not the HTTP status. An optional
// exclude_session_id query treats the dry run as an edit of that session.
func (h *TimetableHandler) ValidateSession(c *gin.Context) {
	timetableID, err := uuid.Parse(c.Param("timetable_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	excludeID := uuid.Nil
	if raw := c.Query("exclude_session_id"); raw != "" {
		excludeID, err = uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
	}

	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.timetableService.ValidateCandidate(c.Request.Context(), timetableID, &req, excludeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"validation": result})
}

// GetSession godoc
// GET /api/v1/sessions/:session_id
func (h *TimetableHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, assignments, err := h.timetableService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session, "invigilators": assignments})
}

// UpdateSession godoc
// PUT /api/v1/sessions/:session_id
// Applies a conflict-free edit; the candidate is revalidated with its
// previous incarnation excluded from the snapshot.
func (h *TimetableHandler) UpdateSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, result, err := h.timetableService.UpdateSession(c.Request.Context(), sessionID, &req)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrSessionCancelled):
			response.Fail(c, http.StatusConflict, response.ErrSessionCancelled)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	if !result.IsValid {
		response.FailWithData(c, http.StatusUnprocessableEntity, response.ErrScheduleConflict, gin.H{"validation": result})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session, "validation": result})
}

// DeleteSession godoc
// DELETE /api/v1/sessions/:session_id
// Hard-deletes a draft. Scheduled sessions and sessions with registrations
// are refused; those go through cancel.
func (h *TimetableHandler) DeleteSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.timetableService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotDraft):
			response.Fail(c, http.StatusForbidden, response.ErrActionForbidden)
		case errors.Is(err, service.ErrSessionInUse):
			response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// CancelSession godoc
// POST /api/v1/sessions/:session_id/cancel
// Soft-cancels a session: the record stays for the audit trail and every
// subsequent operation on it is rejected.
func (h *TimetableHandler) CancelSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.timetableService.CancelSession(c.Request.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, repository.ErrAlreadyCancelled):
			response.Fail(c, http.StatusConflict, response.ErrSessionCancelled)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "cancelled"})
}
