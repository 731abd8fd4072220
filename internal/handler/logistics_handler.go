package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/elms-backend/internal/model"
	"github.com/stemsi/elms-backend/internal/response"
	"github.com/stemsi/elms-backend/internal/service"
	"github.com/stemsi/elms-backend/internal/validator"
)

// LogisticsHandler handles exam-day endpoints: session lifecycle, check-ins,
// script submissions, invigilators and incidents.
type LogisticsHandler struct {
	logisticsService *service.LogisticsService
}

// NewLogisticsHandler creates a new LogisticsHandler.
func NewLogisticsHandler(logisticsService *service.LogisticsService) *LogisticsHandler {
	return &LogisticsHandler{logisticsService: logisticsService}
}

// sessionID parses the session route parameter, failing the request itself
// on a malformed value.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// failLogistics translates the service error vocabulary into HTTP responses.
func failLogistics(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrIllegalTransition):
		response.Fail(c, http.StatusConflict, response.ErrIllegalTransition)
	case errors.Is(err, service.ErrNotRegistered):
		response.Fail(c, http.StatusNotFound, response.ErrNotRegistered)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// StartSession godoc
// POST /api/v1/sessions/:session_id/start
func (h *LogisticsHandler) StartSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := h.logisticsService.StartSession(c.Request.Context(), id)
	if err != nil {
		failLogistics(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// CompleteSession godoc
// POST /api/v1/sessions/:session_id/complete
func (h *LogisticsHandler) CompleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := h.logisticsService.CompleteSession(c.Request.Context(), id)
	if err != nil {
		failLogistics(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// RegisterStudents godoc
// POST /api/v1/sessions/:session_id/registrations
// Registers a batch of students; already registered students are skipped.
func (h *LogisticsHandler) RegisterStudents(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.RegisterStudentsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	created, err := h.logisticsService.RegisterStudents(c.Request.Context(), id, req.StudentIDs)
	if err != nil {
		failLogistics(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"registered": created})
}

// ListRegistrations godoc
// GET /api/v1/sessions/:session_id/registrations
func (h *LogisticsHandler) ListRegistrations(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))

	registrations, pagination, err := h.logisticsService.ListRegistrations(c.Request.Context(), id, page, perPage)
	if err != nil {
		failLogistics(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"registrations": registrations}, pagination)
}

// CheckIn godoc
// POST /api/v1/sessions/:session_id/check-in
// Checks a student in. A state-machine rejection returns the full validation
// result; an accepted check-in is queued for persistence and acknowledged
// immediately.
func (h *LogisticsHandler) CheckIn(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.CheckInRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.logisticsService.CheckIn(c.Request.Context(), id, &req)
	if err != nil {
		failLogistics(c, err)
		return
	}
	if !result.IsValid {
		response.FailWithData(c, http.StatusUnprocessableEntity, response.ErrOperationRejected, gin.H{"validation": result})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"validation": result})
}

// SubmitScript godoc
// POST /api/v1/sessions/:session_id/submit-script
func (h *LogisticsHandler) SubmitScript(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SubmitScriptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	registration, result, err := h.logisticsService.SubmitScript(c.Request.Context(), id, &req)
	if err != nil {
		failLogistics(c, err)
		return
	}
	if !result.IsValid {
		response.FailWithData(c, http.StatusUnprocessableEntity, response.ErrOperationRejected, gin.H{"validation": result})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"registration": registration, "validation": result})
}

// AssignInvigilator godoc
// POST /api/v1/sessions/:session_id/invigilators
// Assigns staff after the state machine and the overlap check both pass; a
// rejection lists every conflicting assignment.
func (h *LogisticsHandler) AssignInvigilator(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.AssignInvigilatorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assignment, result, err := h.logisticsService.AssignInvigilator(c.Request.Context(), id, &req)
	if err != nil {
		failLogistics(c, err)
		return
	}
	if !result.IsValid {
		response.FailWithData(c, http.StatusUnprocessableEntity, response.ErrScheduleConflict, gin.H{"validation": result})
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"assignment": assignment, "validation": result})
}

// UnassignInvigilator godoc
// DELETE /api/v1/sessions/:session_id/invigilators/:invigilator_id
func (h *LogisticsHandler) UnassignInvigilator(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	invigilatorID := c.Param("invigilator_id")
	if invigilatorID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.logisticsService.UnassignInvigilator(c.Request.Context(), id, invigilatorID); err != nil {
		failLogistics(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "unassigned"})
}

// ReportIncident godoc
// POST /api/v1/sessions/:session_id/incidents
func (h *LogisticsHandler) ReportIncident(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.ReportIncidentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	incident, result, err := h.logisticsService.ReportIncident(c.Request.Context(), id, &req)
	if err != nil {
		failLogistics(c, err)
		return
	}
	if !result.IsValid {
		response.FailWithData(c, http.StatusUnprocessableEntity, response.ErrOperationRejected, gin.H{"validation": result})
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"incident": incident, "validation": result})
}

// ListIncidents godoc
// GET /api/v1/sessions/:session_id/incidents
func (h *LogisticsHandler) ListIncidents(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	incidents, err := h.logisticsService.ListIncidents(c.Request.Context(), id)
	if err != nil {
		failLogistics(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"incidents": incidents})
}
