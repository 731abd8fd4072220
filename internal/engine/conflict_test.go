package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/elms-backend/internal/model"
)

func TestCheckInvigilatorConflict(t *testing.T) {
	sessionX := uuid.New()
	existing := []AssignmentRef{
		{
			InvigilatorID: "INV-7",
			SessionID:     sessionX,
			CourseCode:    "PHY201",
			VenueName:     "Main Hall",
			Interval:      mustInterval(t, "2025-12-01", "09:00", "12:00"),
		},
	}

	t.Run("overlapping assignment is reported with full context", func(t *testing.T) {
		candidate := mustInterval(t, "2025-12-01", "10:00", "13:00")
		result := CheckInvigilatorConflict("INV-7", candidate, existing)
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "PHY201")
		assert.Contains(t, result.Errors[0], "Main Hall")
		assert.Contains(t, result.Errors[0], "09:00-12:00")
	})

	t.Run("different invigilator passes", func(t *testing.T) {
		candidate := mustInterval(t, "2025-12-01", "10:00", "13:00")
		result := CheckInvigilatorConflict("INV-8", candidate, existing)
		assert.True(t, result.IsValid)
	})

	t.Run("back to back assignments pass", func(t *testing.T) {
		candidate := mustInterval(t, "2025-12-01", "12:00", "15:00")
		result := CheckInvigilatorConflict("INV-7", candidate, existing)
		assert.True(t, result.IsValid)
	})

	t.Run("every conflict is listed, not just the first", func(t *testing.T) {
		many := append([]AssignmentRef{}, existing...)
		many = append(many, AssignmentRef{
			InvigilatorID: "INV-7",
			SessionID:     uuid.New(),
			CourseCode:    "CHM105",
			VenueName:     "Science Block",
			Interval:      mustInterval(t, "2025-12-01", "11:00", "14:00"),
		})
		candidate := mustInterval(t, "2025-12-01", "10:00", "13:00")
		result := CheckInvigilatorConflict("INV-7", candidate, many)
		assert.False(t, result.IsValid)
		assert.Len(t, result.Errors, 2)
	})
}

func TestValidateSession(t *testing.T) {
	venueID := uuid.New()
	roomID := uuid.New()

	newCandidate := func() Candidate {
		session := &model.ExamSession{
			ID:                 uuid.New(),
			CourseCode:         "MTH101",
			ExamDate:           "2025-12-01",
			StartTime:          "10:00",
			EndTime:            "13:00",
			VenueID:            venueID,
			SessionStatus:      model.SessionStatusNotStarted,
			ExpectedAttendance: 40,
			Rooms:              []model.SessionRoom{{RoomID: roomID, RoomCapacity: 50}},
		}
		return Candidate{
			Session:  session,
			Interval: mustInterval(t, session.ExamDate, session.StartTime, session.EndTime),
		}
	}

	t.Run("clean candidate passes", func(t *testing.T) {
		result := ValidateSession(newCandidate())
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
	})

	t.Run("capacity and invigilator failures accumulate", func(t *testing.T) {
		c := newCandidate()
		c.Session.ExpectedAttendance = 80
		c.Invigilators = []string{"INV-7"}
		c.Assignments = []AssignmentRef{{
			InvigilatorID: "INV-7",
			SessionID:     uuid.New(),
			CourseCode:    "PHY201",
			VenueName:     "Main Hall",
			Interval:      mustInterval(t, "2025-12-01", "09:00", "12:00"),
		}}
		result := ValidateSession(c)
		assert.False(t, result.IsValid)
		// Both reasons surface at once for the operator.
		assert.Len(t, result.Errors, 2)
	})

	t.Run("session excluded from the snapshot never conflicts with itself", func(t *testing.T) {
		c := newCandidate()
		c.ExcludeSessionID = c.Session.ID
		c.Invigilators = []string{"INV-7"}
		c.Assignments = []AssignmentRef{{
			InvigilatorID: "INV-7",
			SessionID:     c.Session.ID,
			CourseCode:    c.Session.CourseCode,
			VenueName:     "Main Hall",
			Interval:      c.Interval,
		}}
		c.OtherSessions = []SessionRef{{
			SessionID:  c.Session.ID,
			CourseCode: c.Session.CourseCode,
			VenueID:    venueID,
			VenueName:  "Main Hall",
			RoomIDs:    []uuid.UUID{roomID},
			Interval:   c.Interval,
		}}
		result := ValidateSession(c)
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Warnings)
	})

	t.Run("shared room at overlapping time warns only", func(t *testing.T) {
		c := newCandidate()
		c.OtherSessions = []SessionRef{{
			SessionID:  uuid.New(),
			CourseCode: "BIO110",
			VenueID:    venueID,
			VenueName:  "Main Hall",
			RoomIDs:    []uuid.UUID{roomID},
			Interval:   mustInterval(t, "2025-12-01", "11:00", "14:00"),
		}}
		result := ValidateSession(c)
		assert.True(t, result.IsValid)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "BIO110")
	})

	t.Run("cancelled session cannot be edited", func(t *testing.T) {
		c := newCandidate()
		c.Session.SessionStatus = model.SessionStatusCancelled
		result := ValidateSession(c)
		assert.False(t, result.IsValid)
	})
}
