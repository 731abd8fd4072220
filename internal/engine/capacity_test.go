package engine

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/elms-backend/internal/model"
)

func sessionWithRooms(expected int, rooms ...model.SessionRoom) *model.ExamSession {
	return &model.ExamSession{
		ID:                 uuid.New(),
		CourseCode:         "MTH101",
		ExamDate:           "2025-12-01",
		StartTime:          "09:00",
		EndTime:            "12:00",
		ExpectedAttendance: expected,
		Rooms:              rooms,
	}
}

func TestAggregateCapacity(t *testing.T) {
	t.Run("sums declared capacities", func(t *testing.T) {
		s := sessionWithRooms(60,
			model.SessionRoom{RoomID: uuid.New(), RoomCapacity: 40},
			model.SessionRoom{RoomID: uuid.New(), RoomCapacity: 40},
		)
		summary := AggregateCapacity(s)
		assert.Equal(t, 80, summary.TotalCapacity)
		assert.InDelta(t, 0.75, summary.UtilizationRate, 1e-9)
	})

	t.Run("allocation override beats declared capacity", func(t *testing.T) {
		s := sessionWithRooms(30,
			model.SessionRoom{RoomID: uuid.New(), RoomCapacity: 100, AllocatedCapacity: 40},
		)
		assert.Equal(t, 40, AggregateCapacity(s).TotalCapacity)
	})

	t.Run("zero capacity yields zero rate, not a division", func(t *testing.T) {
		s := sessionWithRooms(10)
		summary := AggregateCapacity(s)
		assert.Equal(t, 0, summary.TotalCapacity)
		assert.Zero(t, summary.UtilizationRate)
	})
}

func TestEvaluateCapacity(t *testing.T) {
	t.Run("overbooked session is invalid and names both numbers", func(t *testing.T) {
		s := sessionWithRooms(55, model.SessionRoom{RoomID: uuid.New(), RoomCapacity: 50})
		result := EvaluateCapacity(s)
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "55")
		assert.Contains(t, result.Errors[0], "50")
	})

	t.Run("high utilization warns without blocking", func(t *testing.T) {
		s := sessionWithRooms(46, model.SessionRoom{RoomID: uuid.New(), RoomCapacity: 50})
		result := EvaluateCapacity(s)
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "92%")
	})

	t.Run("exactly full warns", func(t *testing.T) {
		s := sessionWithRooms(50, model.SessionRoom{RoomID: uuid.New(), RoomCapacity: 50})
		result := EvaluateCapacity(s)
		assert.True(t, result.IsValid)
		assert.Len(t, result.Warnings, 1)
	})

	t.Run("comfortable utilization passes silently", func(t *testing.T) {
		s := sessionWithRooms(30, model.SessionRoom{RoomID: uuid.New(), RoomCapacity: 50})
		result := EvaluateCapacity(s)
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Warnings)
	})

	t.Run("unresolvable room capacity warns instead of vanishing", func(t *testing.T) {
		s := sessionWithRooms(10,
			model.SessionRoom{RoomID: uuid.New(), RoomName: "B-12"},
			model.SessionRoom{RoomID: uuid.New(), RoomCapacity: 40},
		)
		result := EvaluateCapacity(s)
		assert.True(t, result.IsValid)
		require.NotEmpty(t, result.Warnings)
		assert.Contains(t, result.Warnings[0], "B-12")
	})

	t.Run("raising attendance past capacity flips valid to invalid, never back", func(t *testing.T) {
		room := model.SessionRoom{RoomID: uuid.New(), RoomCapacity: 50}
		flipped := false
		for attendance := 0; attendance <= 70; attendance++ {
			result := EvaluateCapacity(sessionWithRooms(attendance, room))
			if flipped {
				assert.False(t, result.IsValid, fmt.Sprintf("attendance %d should stay invalid", attendance))
			}
			if !result.IsValid {
				flipped = true
				assert.Greater(t, attendance, 50)
			}
		}
		assert.True(t, flipped)
	})
}
