package model

import (
	"time"

	"github.com/google/uuid"
)

// Timetable groups the exam sessions of one examination period. Conflict
// validation always runs against the sessions sharing a timetable.
type Timetable struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	AcademicTerm string    `json:"academic_term"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateTimetableRequest is the payload for opening a new timetable.
type CreateTimetableRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=255"`
	AcademicTerm string `json:"academic_term" binding:"required,term"`
}
