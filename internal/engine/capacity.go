package engine

import (
	"fmt"

	"github.com/stemsi/elms-backend/internal/model"
)

// approachingCapacityThreshold is the utilization above which a session earns
// an advisory warning while still being valid.
const approachingCapacityThreshold = 0.9

// CapacitySummary is the aggregated seating picture of one session.
type CapacitySummary struct {
	TotalCapacity   int     `json:"totalCapacity"`
	UtilizationRate float64 `json:"utilizationRate"`
}

// AggregateCapacity sums the allocated capacity of a session's rooms, falling
// back to each room's declared capacity when no per-session override is given.
// A zero total yields a zero utilization rate; EvaluateCapacity flags that
// case instead of dividing by zero.
func AggregateCapacity(s *model.ExamSession) CapacitySummary {
	total := 0
	for _, room := range s.Rooms {
		total += roomCapacity(room)
	}

	summary := CapacitySummary{TotalCapacity: total}
	if total > 0 {
		summary.UtilizationRate = float64(s.ExpectedAttendance) / float64(total)
	}
	return summary
}

func roomCapacity(room model.SessionRoom) int {
	if room.AllocatedCapacity > 0 {
		return room.AllocatedCapacity
	}
	return room.RoomCapacity
}

// EvaluateCapacity decides whether a session's assigned rooms can hold its
// expected attendance. Capacity is always computed live from the current room
// allocations; the session's stored CapacityExceeded flag is ignored.
func EvaluateCapacity(s *model.ExamSession) ValidationResult {
	result := NewResult()
	summary := AggregateCapacity(s)

	for _, room := range s.Rooms {
		if roomCapacity(room) == 0 {
			name := room.RoomName
			if name == "" {
				name = room.RoomID.String()
			}
			result.AddWarning(fmt.Sprintf("Room %s has no resolvable capacity and is counted as 0 seats", name))
		}
	}

	if s.ExpectedAttendance > summary.TotalCapacity {
		result.AddError(fmt.Sprintf(
			"Expected attendance %d exceeds total allocated capacity %d",
			s.ExpectedAttendance, summary.TotalCapacity))
		return result
	}

	if summary.UtilizationRate > approachingCapacityThreshold && summary.UtilizationRate <= 1.0 {
		result.AddWarning(fmt.Sprintf(
			"Approaching capacity: seating utilization at %.0f%%", summary.UtilizationRate*100))
	}

	return result
}
