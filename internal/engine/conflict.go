package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/elms-backend/internal/model"
)

// SessionRef is a lightweight view of an already-scheduled session, used for
// cross-session checks. Repositories build these from the timetable snapshot.
type SessionRef struct {
	SessionID  uuid.UUID
	CourseCode string
	VenueID    uuid.UUID
	VenueName  string
	RoomIDs    []uuid.UUID
	Interval   Interval
}

// AssignmentRef is one existing invigilator assignment together with enough
// session context to word a conflict message.
type AssignmentRef struct {
	InvigilatorID string
	SessionID     uuid.UUID
	CourseCode    string
	VenueName     string
	Interval      Interval
}

// Candidate is a proposed session (new or edited) under validation, together
// with the snapshot of everything it must not collide with. ExcludeSessionID
// removes the session's own previous incarnation from the snapshot when an
// edit is validated, so a session never conflicts with itself.
type Candidate struct {
	Session          *model.ExamSession
	Interval         Interval
	Invigilators     []string
	OtherSessions    []SessionRef
	Assignments      []AssignmentRef
	ExcludeSessionID uuid.UUID
}

// CheckInvigilatorConflict finds every existing assignment of invigilatorID
// whose session interval overlaps the candidate interval. All conflicts are
// reported, not just the first, so the operator sees the complete picture.
func CheckInvigilatorConflict(invigilatorID string, candidate Interval, existing []AssignmentRef) ValidationResult {
	result := NewResult()
	for _, a := range existing {
		if a.InvigilatorID != invigilatorID {
			continue
		}
		if !a.Interval.Overlaps(candidate) {
			continue
		}
		result.AddError(fmt.Sprintf(
			"Invigilator %s is already assigned to %s at %s on %s %s",
			invigilatorID, a.CourseCode, a.VenueName, a.Interval.Date, a.Interval.TimeRange()))
	}
	return result
}

// CheckRoomOverlap surfaces sessions that reuse one of the candidate's rooms
// at an overlapping time. The observed system never enforced this, so it is
// advisory only: a warning per colliding session, never an error.
func CheckRoomOverlap(candidate Candidate) ValidationResult {
	result := NewResult()

	candidateRooms := make(map[uuid.UUID]struct{}, len(candidate.Session.Rooms))
	for _, room := range candidate.Session.Rooms {
		candidateRooms[room.RoomID] = struct{}{}
	}
	if len(candidateRooms) == 0 {
		return result
	}

	for _, other := range candidate.OtherSessions {
		if other.SessionID == candidate.ExcludeSessionID {
			continue
		}
		if other.VenueID != candidate.Session.VenueID || !other.Interval.Overlaps(candidate.Interval) {
			continue
		}
		for _, roomID := range other.RoomIDs {
			if _, shared := candidateRooms[roomID]; shared {
				result.AddWarning(fmt.Sprintf(
					"Room shared with %s at %s on %s %s",
					other.CourseCode, other.VenueName, other.Interval.Date, other.Interval.TimeRange()))
				break
			}
		}
	}
	return result
}

// ValidateSession runs the combined conflict validation for a candidate:
// capacity, invigilator double-booking across the timetable, room reuse and
// the session's own lifecycle state. Errors accumulate across all checks; the
// caller persists only on IsValid.
func ValidateSession(candidate Candidate) ValidationResult {
	result := NewResult()

	switch candidate.Session.SessionStatus {
	case model.SessionStatusCancelled:
		result.AddError("Session has been cancelled")
	case model.SessionStatusCompleted:
		result.AddError("Cannot edit a completed session")
	}

	result.Merge(EvaluateCapacity(candidate.Session))

	assignments := candidate.Assignments
	if candidate.ExcludeSessionID != uuid.Nil {
		assignments = excludeSession(assignments, candidate.ExcludeSessionID)
	}
	for _, invigilatorID := range candidate.Invigilators {
		result.Merge(CheckInvigilatorConflict(invigilatorID, candidate.Interval, assignments))
	}

	result.Merge(CheckRoomOverlap(candidate))

	return result
}

func excludeSession(assignments []AssignmentRef, sessionID uuid.UUID) []AssignmentRef {
	kept := make([]AssignmentRef, 0, len(assignments))
	for _, a := range assignments {
		if a.SessionID != sessionID {
			kept = append(kept, a)
		}
	}
	return kept
}
