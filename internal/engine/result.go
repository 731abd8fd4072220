// Package engine is the exam scheduling and validation core: temporal overlap
// detection, room capacity aggregation, the exam-day session state machine,
// cross-session conflict validation and bulk import row validation.
//
// Every function in this package is a pure computation over domain objects
// handed in by the caller. The engine never touches the database or Redis;
// repositories supply it with a consistent snapshot of "the other sessions in
// this timetable" and callers persist only after receiving a valid result.
package engine

// ValidationResult is the outcome of a validation pass. The JSON field names
// are a compatibility contract with existing API consumers and must not
// change.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewResult returns a passing result with empty (non-nil) error and warning
// lists so the serialized form is always [] rather than null.
func NewResult() ValidationResult {
	return ValidationResult{
		IsValid:  true,
		Errors:   []string{},
		Warnings: []string{},
	}
}

// AddError records a blocking problem and marks the result invalid. Checks
// keep running after the first error so operators see the full list at once.
func (r *ValidationResult) AddError(msg string) {
	r.IsValid = false
	r.Errors = append(r.Errors, msg)
}

// AddWarning records an advisory condition. Warnings never block a commit.
func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Merge folds another result into r, accumulating its errors and warnings.
func (r *ValidationResult) Merge(other ValidationResult) {
	if !other.IsValid {
		r.IsValid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}
