package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"
	ErrActionForbidden  ErrCode = "ACTION_FORBIDDEN"

	// ─── Scheduling ────────────────────────────────────────────────────
	ErrScheduleConflict  ErrCode = "SCHEDULE_CONFLICT"
	ErrSessionCancelled  ErrCode = "SESSION_CANCELLED"
	ErrIllegalTransition ErrCode = "ILLEGAL_TRANSITION"
	ErrOperationRejected ErrCode = "OPERATION_REJECTED"

	// ─── Bulk import ───────────────────────────────────────────────────
	ErrImportBlocked ErrCode = "IMPORT_BLOCKED"

	// ─── Logistics ─────────────────────────────────────────────────────
	ErrNotRegistered ErrCode = "STUDENT_NOT_REGISTERED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "Resource cannot be deleted because other records reference it."
	case ErrActionForbidden:
		return "This action is not permitted."

	// ─── Scheduling ────────────────────────────────────────────────────
	case ErrScheduleConflict:
		return "The proposed session conflicts with the existing timetable."
	case ErrSessionCancelled:
		return "This session has been cancelled."
	case ErrIllegalTransition:
		return "The session cannot move to the requested state."
	case ErrOperationRejected:
		return "This operation is not allowed in the session's current state."

	// ─── Bulk import ───────────────────────────────────────────────────
	case ErrImportBlocked:
		return "The batch contains invalid rows and cannot be committed."

	// ─── Logistics ─────────────────────────────────────────────────────
	case ErrNotRegistered:
		return "The student is not registered for this session."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
