package engine

import (
	"fmt"

	"github.com/stemsi/elms-backend/internal/model"
)

// outcomeKind is one cell kind in the operation legality table.
type outcomeKind int

const (
	outcomeAllow outcomeKind = iota
	outcomeWarn
	outcomeReject
)

type outcome struct {
	kind    outcomeKind
	message string
}

// operationTable maps (operation, session status) to its legality. CANCELLED
// is absent on purpose: cancellation dominates every operation and is
// short-circuited in EvaluateOperation before the table is consulted.
var operationTable = map[model.Operation]map[model.SessionStatus]outcome{
	model.OperationCheckIn: {
		model.SessionStatusNotStarted: {outcomeWarn, "Student checked in before session start"},
		model.SessionStatusInProgress: {outcomeAllow, ""},
		model.SessionStatusCompleted:  {outcomeReject, "Cannot check in students after exam completion"},
	},
	model.OperationSubmitScript: {
		model.SessionStatusNotStarted: {outcomeReject, "Cannot submit scripts before session start"},
		model.SessionStatusInProgress: {outcomeAllow, ""},
		model.SessionStatusCompleted:  {outcomeWarn, "Script submitted after session end"},
	},
	model.OperationAssignInvigilator: {
		model.SessionStatusNotStarted: {outcomeAllow, ""},
		model.SessionStatusInProgress: {outcomeAllow, ""},
		model.SessionStatusCompleted:  {outcomeReject, "Cannot assign invigilators after exam completion"},
	},
	model.OperationReportIncident: {
		model.SessionStatusNotStarted: {outcomeAllow, ""},
		model.SessionStatusInProgress: {outcomeAllow, ""},
		model.SessionStatusCompleted:  {outcomeWarn, "Incident reported after session end"},
	},
}

// EvaluateOperation decides whether an exam-day operation is legal for a
// session in its current logistics state. A cancelled session rejects every
// operation with a single error regardless of the table.
func EvaluateOperation(status model.SessionStatus, op model.Operation) ValidationResult {
	result := NewResult()

	if status == model.SessionStatusCancelled {
		result.AddError("Session has been cancelled")
		return result
	}

	row, ok := operationTable[op]
	if !ok {
		result.AddError(fmt.Sprintf("Unknown operation %q", string(op)))
		return result
	}
	cell, ok := row[status]
	if !ok {
		result.AddError(fmt.Sprintf("Unknown session status %q", string(status)))
		return result
	}

	switch cell.kind {
	case outcomeWarn:
		result.AddWarning(cell.message)
	case outcomeReject:
		result.AddError(cell.message)
	}
	return result
}

// CanTransition reports whether the logistics state machine permits moving a
// session from one status to another. NOT_STARTED advances to IN_PROGRESS on
// the first check-in or an explicit start; IN_PROGRESS advances to COMPLETED
// explicitly or when the scheduled end passes; an explicit cancel is legal
// from any state that is not already cancelled, and is terminal.
func CanTransition(from, to model.SessionStatus) bool {
	switch {
	case from == model.SessionStatusCancelled:
		return false
	case to == model.SessionStatusCancelled:
		return true
	case from == model.SessionStatusNotStarted && to == model.SessionStatusInProgress:
		return true
	case from == model.SessionStatusInProgress && to == model.SessionStatusCompleted:
		return true
	}
	return false
}
