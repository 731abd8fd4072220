package model

import (
	"time"

	"github.com/google/uuid"
)

// StudentRegistration binds one student to one exam session with attendance
// and script-submission facts. Rows are never deleted (audit trail); a
// cancelled session keeps its registrations.
type StudentRegistration struct {
	ID              uuid.UUID  `json:"id"`
	StudentID       string     `json:"student_id"`
	SessionID       uuid.UUID  `json:"session_id"`
	IsPresent       bool       `json:"is_present"`
	ScriptSubmitted bool       `json:"script_submitted"`
	SeatNumber      *string    `json:"seat_number,omitempty"`
	CheckInTime     *time.Time `json:"check_in_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// RegisterStudentsRequest registers a batch of students ahead of the exam.
type RegisterStudentsRequest struct {
	StudentIDs []string `json:"student_ids" binding:"required,min=1,dive,min=1,max=64"`
}

// CheckInRequest is the payload for checking a student into a session.
type CheckInRequest struct {
	StudentID  string `json:"student_id" binding:"required,min=1,max=64"`
	SeatNumber string `json:"seat_number" binding:"omitempty,max=16"`
}

// SubmitScriptRequest is the payload for recording a script hand-in.
type SubmitScriptRequest struct {
	StudentID string `json:"student_id" binding:"required,min=1,max=64"`
}
