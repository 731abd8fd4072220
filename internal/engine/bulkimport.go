package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Duration bounds for an imported session, in minutes.
const (
	minImportDuration = 30
	maxImportDuration = 480
)

// Level bounds for the optional course level column.
const (
	minImportLevel = 100
	maxImportLevel = 900
)

var (
	dateFormatRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeFormatRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// RowStatus tracks one import row through its validation lifecycle. Editing a
// field re-runs validation and may flip INVALID back to VALID or vice versa.
type RowStatus string

const (
	RowStatusUnvalidated RowStatus = "UNVALIDATED"
	RowStatusValid       RowStatus = "VALID"
	RowStatusInvalid     RowStatus = "INVALID"
)

// FieldIssue is one error or warning attached to a specific column of a row.
type FieldIssue struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ImportRow is one candidate exam session parsed from an uploaded tabular
// file. The column names and formats are a compatibility contract with the
// existing upload UI and must not change. Rows are ephemeral: they are never
// persisted, only their committed sessions are.
type ImportRow struct {
	RowNumber           int          `json:"rowNumber"`
	CourseCode          string       `json:"courseCode"`
	CourseName          string       `json:"courseName"`
	ExamDate            string       `json:"examDate"`
	StartTime           string       `json:"startTime"`
	Duration            string       `json:"duration"`
	VenueName           string       `json:"venueName"`
	VenueLocation       string       `json:"venueLocation"`
	Level               string       `json:"level"`
	Notes               string       `json:"notes"`
	SpecialRequirements string       `json:"specialRequirements"`
	Status              RowStatus    `json:"status"`
	Errors              []FieldIssue `json:"errors"`
	Warnings            []FieldIssue `json:"warnings"`
}

// BatchSummary drives the commit gate and the upload progress display. It is
// always recomputed from current row state, never cached, because rows mutate
// in place as the operator corrects them.
type BatchSummary struct {
	TotalRows        int `json:"totalRows"`
	ValidRows        int `json:"validRows"`
	InvalidRows      int `json:"invalidRows"`
	RowsWithWarnings int `json:"rowsWithWarnings"`
}

func (r *ImportRow) addError(field, message string) {
	r.Errors = append(r.Errors, FieldIssue{Field: field, Message: message, Severity: SeverityError})
}

func (r *ImportRow) addWarning(field, message string) {
	r.Warnings = append(r.Warnings, FieldIssue{Field: field, Message: message, Severity: SeverityWarning})
}

// MarkConflict records an error found outside field validation, such as a
// collision with an already committed session, and demotes the row.
func (r *ImportRow) MarkConflict(field, message string) {
	r.addError(field, message)
	r.Status = RowStatusInvalid
}

// AddVenueWarning attaches an advisory venue collision to the row without
// affecting its status.
func (r *ImportRow) AddVenueWarning(message string) {
	r.addWarning("venueName", message)
}

// Validate runs every field check on the row and settles its status. All
// checks run on every pass so the operator sees every problem at once.
// Previous issues are discarded first; edits therefore flip status in either
// direction.
func (r *ImportRow) Validate() {
	r.Errors = []FieldIssue{}
	r.Warnings = []FieldIssue{}

	if r.CourseCode == "" {
		r.addError("courseCode", "Course code is required")
	}

	if !dateFormatRe.MatchString(r.ExamDate) {
		r.addError("examDate", "Invalid date format. Use YYYY-MM-DD")
	} else if _, err := time.Parse(dateLayout, r.ExamDate); err != nil {
		// Shape matched but the calendar disagrees (month 13, Feb 30, ...).
		r.addError("examDate", "Invalid date format. Use YYYY-MM-DD")
	}

	if !timeFormatRe.MatchString(r.StartTime) {
		r.addError("startTime", "Invalid time format. Use HH:MM")
	}

	if minutes, err := strconv.Atoi(r.Duration); err != nil || minutes < minImportDuration || minutes > maxImportDuration {
		r.addError("duration", fmt.Sprintf("Duration must be between %d and %d minutes", minImportDuration, maxImportDuration))
	}

	if r.VenueName == "" {
		r.addError("venueName", "Venue name is required")
	}

	if r.Level != "" {
		if level, err := strconv.Atoi(r.Level); err != nil || level < minImportLevel || level > maxImportLevel {
			r.addError("level", fmt.Sprintf("Level must be between %d and %d", minImportLevel, maxImportLevel))
		}
	}

	if len(r.Errors) == 0 {
		r.Status = RowStatusValid
	} else {
		r.Status = RowStatusInvalid
	}
}

// Interval builds the row's temporal footprint from its parsed fields. Only
// meaningful after Validate reported the row VALID.
func (r *ImportRow) Interval() (Interval, error) {
	minutes, err := strconv.Atoi(r.Duration)
	if err != nil {
		return Interval{}, &InvalidIntervalError{Reason: fmt.Sprintf("duration %q is not a number", r.Duration)}
	}
	start, err := parseClock(r.StartTime)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Date: r.ExamDate, Start: start, End: start + minutes}, nil
}

// ValidateBatch validates every row independently, then runs the pairwise
// cross-row checks that field validation cannot see: duplicate courses on the
// same day and venue time collisions inside the batch. Rows stay independent
// for field checks, so a cross-row problem on row j never hides a field
// problem on row i.
func ValidateBatch(rows []*ImportRow) {
	for _, row := range rows {
		row.Validate()
	}

	for i, a := range rows {
		if a.Status != RowStatusValid {
			continue
		}
		aInterval, err := a.Interval()
		if err != nil {
			continue
		}
		for _, b := range rows[i+1:] {
			if b.Status != RowStatusValid {
				continue
			}
			bInterval, err := b.Interval()
			if err != nil {
				continue
			}

			if a.CourseCode == b.CourseCode && a.ExamDate == b.ExamDate {
				msg := fmt.Sprintf("Course %s appears more than once on %s", a.CourseCode, a.ExamDate)
				a.addError("courseCode", msg)
				b.addError("courseCode", msg)
				a.Status = RowStatusInvalid
				b.Status = RowStatusInvalid
				continue
			}

			if a.VenueName == b.VenueName && aInterval.Overlaps(bInterval) {
				msg := fmt.Sprintf("Venue %s is claimed by rows %d and %d at overlapping times",
					a.VenueName, a.RowNumber, b.RowNumber)
				a.addWarning("venueName", msg)
				b.addWarning("venueName", msg)
			}
		}
	}
}

// Summarize recomputes the batch summary from current row state. The batch is
// submittable only when InvalidRows is zero; partial submission of just the
// valid rows is not permitted.
func Summarize(rows []*ImportRow) BatchSummary {
	summary := BatchSummary{TotalRows: len(rows)}
	for _, row := range rows {
		switch row.Status {
		case RowStatusValid:
			summary.ValidRows++
		case RowStatusInvalid:
			summary.InvalidRows++
		}
		if len(row.Warnings) > 0 {
			summary.RowsWithWarnings++
		}
	}
	return summary
}

// Submittable is the all-or-nothing commit gate.
func Submittable(rows []*ImportRow) bool {
	return Summarize(rows).InvalidRows == 0
}
