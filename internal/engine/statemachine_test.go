package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/elms-backend/internal/model"
)

// cellOutcome is the expected shape of one legality-table cell.
type cellOutcome int

const (
	cellAllowed cellOutcome = iota
	cellAllowedWithWarning
	cellRejected
)

func TestEvaluateOperationTable(t *testing.T) {
	// Every (operation, state) cell of the legality table, enumerated.
	tests := []struct {
		op     model.Operation
		status model.SessionStatus
		want   cellOutcome
	}{
		{model.OperationCheckIn, model.SessionStatusNotStarted, cellAllowedWithWarning},
		{model.OperationCheckIn, model.SessionStatusInProgress, cellAllowed},
		{model.OperationCheckIn, model.SessionStatusCompleted, cellRejected},
		{model.OperationCheckIn, model.SessionStatusCancelled, cellRejected},

		{model.OperationSubmitScript, model.SessionStatusNotStarted, cellRejected},
		{model.OperationSubmitScript, model.SessionStatusInProgress, cellAllowed},
		{model.OperationSubmitScript, model.SessionStatusCompleted, cellAllowedWithWarning},
		{model.OperationSubmitScript, model.SessionStatusCancelled, cellRejected},

		{model.OperationAssignInvigilator, model.SessionStatusNotStarted, cellAllowed},
		{model.OperationAssignInvigilator, model.SessionStatusInProgress, cellAllowed},
		{model.OperationAssignInvigilator, model.SessionStatusCompleted, cellRejected},
		{model.OperationAssignInvigilator, model.SessionStatusCancelled, cellRejected},

		{model.OperationReportIncident, model.SessionStatusNotStarted, cellAllowed},
		{model.OperationReportIncident, model.SessionStatusInProgress, cellAllowed},
		{model.OperationReportIncident, model.SessionStatusCompleted, cellAllowedWithWarning},
		{model.OperationReportIncident, model.SessionStatusCancelled, cellRejected},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s in %s", tt.op, tt.status), func(t *testing.T) {
			result := EvaluateOperation(tt.status, tt.op)
			switch tt.want {
			case cellAllowed:
				assert.True(t, result.IsValid)
				assert.Empty(t, result.Errors)
				assert.Empty(t, result.Warnings)
			case cellAllowedWithWarning:
				assert.True(t, result.IsValid)
				assert.Empty(t, result.Errors)
				assert.NotEmpty(t, result.Warnings)
			case cellRejected:
				assert.False(t, result.IsValid)
				assert.NotEmpty(t, result.Errors)
			}
		})
	}
}

func TestEvaluateOperationCancelledDominates(t *testing.T) {
	// Cancellation rejects every operation with a single error, table aside.
	for _, op := range []model.Operation{
		model.OperationCheckIn,
		model.OperationSubmitScript,
		model.OperationAssignInvigilator,
		model.OperationReportIncident,
	} {
		result := EvaluateOperation(model.SessionStatusCancelled, op)
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "cancelled")
	}
}

func TestEvaluateOperationCheckInAfterCompletion(t *testing.T) {
	result := EvaluateOperation(model.SessionStatusCompleted, model.OperationCheckIn)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Cannot check in students after exam completion", result.Errors[0])
}

func TestEvaluateOperationUnknownOperation(t *testing.T) {
	result := EvaluateOperation(model.SessionStatusInProgress, model.Operation("PHOTOGRAPH_HALL"))
	assert.False(t, result.IsValid)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to model.SessionStatus
		want     bool
	}{
		{model.SessionStatusNotStarted, model.SessionStatusInProgress, true},
		{model.SessionStatusInProgress, model.SessionStatusCompleted, true},
		{model.SessionStatusNotStarted, model.SessionStatusCancelled, true},
		{model.SessionStatusInProgress, model.SessionStatusCancelled, true},
		{model.SessionStatusCompleted, model.SessionStatusCancelled, true},
		{model.SessionStatusNotStarted, model.SessionStatusCompleted, false},
		{model.SessionStatusCompleted, model.SessionStatusInProgress, false},
		{model.SessionStatusCancelled, model.SessionStatusInProgress, false},
		{model.SessionStatusCancelled, model.SessionStatusCancelled, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			fmt.Sprintf("%s -> %s", tt.from, tt.to))
	}
}
