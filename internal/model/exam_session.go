package model

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleStatus enumerates the editorial lifecycle of a timetable entry,
// before exam day.
type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "DRAFT"
	ScheduleStatusScheduled ScheduleStatus = "SCHEDULED"
	ScheduleStatusConfirmed ScheduleStatus = "CONFIRMED"
	ScheduleStatusCancelled ScheduleStatus = "CANCELLED"
)

// SessionStatus enumerates exam-day logistics states.
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "NOT_STARTED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusCancelled  SessionStatus = "CANCELLED"
)

// Operation enumerates exam-day operations whose legality depends on the
// session's current SessionStatus. The string values are part of the API
// surface and must not change.
type Operation string

const (
	OperationCheckIn           Operation = "CHECK_IN"
	OperationSubmitScript      Operation = "SUBMIT_SCRIPT"
	OperationAssignInvigilator Operation = "ASSIGN_INVIGILATOR"
	OperationReportIncident    Operation = "REPORT_INCIDENT"
)

// SessionRoom is one room allocation for an exam session. AllocatedCapacity
// overrides the room's declared capacity when non-zero.
type SessionRoom struct {
	RoomID            uuid.UUID `json:"room_id"`
	RoomName          string    `json:"room_name,omitempty"`
	RoomCapacity      int       `json:"room_capacity"`
	AllocatedCapacity int       `json:"allocated_capacity"`
}

// ExamSession represents one scheduled examination occurrence: one course on
// one date/time at one venue. Dates and clock times are kept as the wire
// strings (YYYY-MM-DD, HH:MM) used everywhere in the scheduling contract.
type ExamSession struct {
	ID                 uuid.UUID      `json:"id"`
	TimetableID        uuid.UUID      `json:"timetable_id"`
	CourseCode         string         `json:"course_code"`
	CourseName         string         `json:"course_name,omitempty"`
	ExamDate           string         `json:"exam_date"`
	StartTime          string         `json:"start_time"`
	EndTime            string         `json:"end_time"`
	DurationMinutes    int            `json:"duration_minutes"`
	VenueID            uuid.UUID      `json:"venue_id"`
	VenueName          string         `json:"venue_name,omitempty"`
	Rooms              []SessionRoom  `json:"rooms"`
	Status             ScheduleStatus `json:"status"`
	SessionStatus      SessionStatus  `json:"session_status"`
	ExpectedAttendance int            `json:"expected_attendance"`
	// CapacityExceeded is a stored display flag. Validation always recomputes
	// capacity live from the current room allocations; this value is never
	// trusted by the engine.
	CapacityExceeded bool      `json:"capacity_exceeded"`
	Level            *int      `json:"level,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RoomAllocationRequest is one room entry inside a session create/update payload.
type RoomAllocationRequest struct {
	RoomID            uuid.UUID `json:"room_id" binding:"required"`
	AllocatedCapacity int       `json:"allocated_capacity" binding:"omitempty,gte=0"`
}

// CreateSessionRequest is the payload for scheduling a new exam session.
type CreateSessionRequest struct {
	CourseCode         string                  `json:"course_code" binding:"required,min=2,max=32"`
	CourseName         string                  `json:"course_name" binding:"omitempty,max=255"`
	ExamDate           string                  `json:"exam_date" binding:"required,datetime=2006-01-02"`
	StartTime          string                  `json:"start_time" binding:"required,datetime=15:04"`
	EndTime            string                  `json:"end_time" binding:"required,datetime=15:04"`
	VenueID            uuid.UUID               `json:"venue_id" binding:"required"`
	Rooms              []RoomAllocationRequest `json:"rooms" binding:"omitempty,dive"`
	ExpectedAttendance int                     `json:"expected_attendance" binding:"gte=0"`
	Invigilators       []string                `json:"invigilators" binding:"omitempty,dive,min=1"`
	Level              *int                    `json:"level" binding:"omitempty,gte=100,lte=900"`
	Notes              string                  `json:"notes" binding:"omitempty,max=1000"`
	Draft              bool                    `json:"draft"`
}

// UpdateSessionRequest is the payload for a conflict-free edit of an existing
// session. Zero-value fields are left untouched.
type UpdateSessionRequest struct {
	CourseCode         string                  `json:"course_code" binding:"omitempty,min=2,max=32"`
	CourseName         string                  `json:"course_name" binding:"omitempty,max=255"`
	ExamDate           string                  `json:"exam_date" binding:"omitempty,datetime=2006-01-02"`
	StartTime          string                  `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime            string                  `json:"end_time" binding:"omitempty,datetime=15:04"`
	VenueID            *uuid.UUID              `json:"venue_id" binding:"omitempty"`
	Rooms              []RoomAllocationRequest `json:"rooms" binding:"omitempty,dive"`
	ExpectedAttendance *int                    `json:"expected_attendance" binding:"omitempty,gte=0"`
	Level              *int                    `json:"level" binding:"omitempty,gte=100,lte=900"`
	Notes              *string                 `json:"notes" binding:"omitempty,max=1000"`
}
