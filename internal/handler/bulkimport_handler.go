package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/elms-backend/internal/engine"
	"github.com/stemsi/elms-backend/internal/response"
	"github.com/stemsi/elms-backend/internal/service"
)

// BulkImportHandler handles batch validation and commit of sessions parsed
// from an uploaded tabular file.
type BulkImportHandler struct {
	importService *service.BulkImportService
}

// NewBulkImportHandler creates a new BulkImportHandler.
func NewBulkImportHandler(importService *service.BulkImportService) *BulkImportHandler {
	return &BulkImportHandler{importService: importService}
}

// importRequest carries the parsed rows of an upload. Parsing the file itself
// happens in the upload UI; the API consumes rows.
type importRequest struct {
	Rows []*engine.ImportRow `json:"rows" binding:"required,min=1"`
}

// ValidateBatch godoc
// POST /api/v1/timetables/:timetable_id/import/validate
// Runs field, cross-row and timetable-collision checks over the batch. Rows
// come back annotated; the summary drives the commit gate in the UI.
func (h *BulkImportHandler) ValidateBatch(c *gin.Context) {
	timetableID, err := uuid.Parse(c.Param("timetable_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	summary, err := h.importService.ValidateRows(c.Request.Context(), timetableID, req.Rows)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"rows": req.Rows, "summary": summary})
}

// CommitBatch godoc
// POST /api/v1/timetables/:timetable_id/import/commit
// Re-validates and inserts the whole batch in one transaction. One invalid
// row blocks everything; there is no partial commit.
func (h *BulkImportHandler) CommitBatch(c *gin.Context) {
	timetableID, err := uuid.Parse(c.Param("timetable_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	sessions, summary, err := h.importService.Commit(c.Request.Context(), timetableID, req.Rows)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBatchInvalid):
			response.FailWithData(c, http.StatusUnprocessableEntity, response.ErrImportBlocked,
				gin.H{"rows": req.Rows, "summary": summary})
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"sessions": sessions, "summary": summary})
}
