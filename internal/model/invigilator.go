package model

import (
	"time"

	"github.com/google/uuid"
)

// InvigilatorAssignment binds one invigilator to one exam session. No
// invigilator may hold two assignments whose session intervals overlap.
type InvigilatorAssignment struct {
	ID            uuid.UUID `json:"id"`
	InvigilatorID string    `json:"invigilator_id"`
	SessionID     uuid.UUID `json:"session_id"`
	AssignedAt    time.Time `json:"assigned_at"`
}

// AssignInvigilatorRequest is the payload for assigning staff to a session.
type AssignInvigilatorRequest struct {
	InvigilatorID string `json:"invigilator_id" binding:"required,min=1,max=64"`
}
