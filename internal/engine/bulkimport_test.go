package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goodRow(n int) *ImportRow {
	return &ImportRow{
		RowNumber:  n,
		CourseCode: "MTH101",
		CourseName: "Calculus I",
		ExamDate:   "2025-12-01",
		StartTime:  "09:00",
		Duration:   "180",
		VenueName:  "Main Hall",
		Level:      "100",
	}
}

func fieldErrors(row *ImportRow, field string) []string {
	var msgs []string
	for _, issue := range row.Errors {
		if issue.Field == field {
			msgs = append(msgs, issue.Message)
		}
	}
	return msgs
}

func TestImportRowValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ImportRow)
		field   string
		message string
	}{
		{"missing course code", func(r *ImportRow) { r.CourseCode = "" }, "courseCode", "Course code is required"},
		{"wrong date shape", func(r *ImportRow) { r.ExamDate = "01/12/2025" }, "examDate", "Invalid date format. Use YYYY-MM-DD"},
		{"impossible month", func(r *ImportRow) { r.ExamDate = "2025-13-01" }, "examDate", "Invalid date format. Use YYYY-MM-DD"},
		{"twelve hour clock", func(r *ImportRow) { r.StartTime = "9:00 AM" }, "startTime", "Invalid time format. Use HH:MM"},
		{"duration too short", func(r *ImportRow) { r.Duration = "20" }, "duration", "Duration must be between 30 and 480 minutes"},
		{"duration too long", func(r *ImportRow) { r.Duration = "500" }, "duration", "Duration must be between 30 and 480 minutes"},
		{"duration not a number", func(r *ImportRow) { r.Duration = "three hours" }, "duration", "Duration must be between 30 and 480 minutes"},
		{"missing venue", func(r *ImportRow) { r.VenueName = "" }, "venueName", "Venue name is required"},
		{"level out of range", func(r *ImportRow) { r.Level = "950" }, "level", "Level must be between 100 and 900"},
		{"level not numeric", func(r *ImportRow) { r.Level = "first year" }, "level", "Level must be between 100 and 900"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := goodRow(1)
			tt.mutate(row)
			row.Validate()
			assert.Equal(t, RowStatusInvalid, row.Status)
			msgs := fieldErrors(row, tt.field)
			require.NotEmpty(t, msgs)
			assert.Equal(t, tt.message, msgs[0])
		})
	}

	t.Run("clean row is valid", func(t *testing.T) {
		row := goodRow(1)
		row.Validate()
		assert.Equal(t, RowStatusValid, row.Status)
		assert.Empty(t, row.Errors)
	})

	t.Run("level is optional", func(t *testing.T) {
		row := goodRow(1)
		row.Level = ""
		row.Validate()
		assert.Equal(t, RowStatusValid, row.Status)
	})

	t.Run("boundary durations are accepted", func(t *testing.T) {
		for _, d := range []string{"30", "480"} {
			row := goodRow(1)
			row.Duration = d
			row.Validate()
			assert.Equal(t, RowStatusValid, row.Status, d)
		}
	})

	t.Run("all field problems surface in one pass", func(t *testing.T) {
		row := &ImportRow{RowNumber: 3, ExamDate: "bad", StartTime: "bad", Duration: "bad"}
		row.Validate()
		assert.Equal(t, RowStatusInvalid, row.Status)
		assert.GreaterOrEqual(t, len(row.Errors), 4)
	})

	t.Run("fixing the field flips the row back to valid", func(t *testing.T) {
		row := goodRow(1)
		row.ExamDate = "2025-13-01"
		row.Validate()
		assert.Equal(t, RowStatusInvalid, row.Status)

		row.ExamDate = "2025-12-01"
		row.Validate()
		assert.Equal(t, RowStatusValid, row.Status)
		assert.Empty(t, row.Errors)
	})
}

func TestValidateBatchCrossRow(t *testing.T) {
	t.Run("duplicate course on the same day fails both rows", func(t *testing.T) {
		a, b := goodRow(1), goodRow(2)
		b.StartTime = "14:00"
		rows := []*ImportRow{a, b}
		ValidateBatch(rows)
		assert.Equal(t, RowStatusInvalid, a.Status)
		assert.Equal(t, RowStatusInvalid, b.Status)
		assert.False(t, Submittable(rows))
	})

	t.Run("same venue at overlapping times warns without blocking", func(t *testing.T) {
		a, b := goodRow(1), goodRow(2)
		b.CourseCode = "PHY201"
		b.StartTime = "10:00"
		rows := []*ImportRow{a, b}
		ValidateBatch(rows)
		assert.Equal(t, RowStatusValid, a.Status)
		assert.Equal(t, RowStatusValid, b.Status)
		assert.NotEmpty(t, a.Warnings)
		assert.NotEmpty(t, b.Warnings)
		assert.True(t, Submittable(rows))
	})

	t.Run("disjoint rows stay independent", func(t *testing.T) {
		a, b := goodRow(1), goodRow(2)
		b.CourseCode = "PHY201"
		b.ExamDate = "2025-12-02"
		rows := []*ImportRow{a, b}
		ValidateBatch(rows)
		assert.True(t, Submittable(rows))
		assert.Empty(t, a.Warnings)
	})
}

func TestSummarize(t *testing.T) {
	a, b, c := goodRow(1), goodRow(2), goodRow(3)
	b.CourseCode = "PHY201"
	b.StartTime = "10:00" // venue overlap warning with a
	c.CourseCode = "CHM105"
	c.ExamDate = "2025-13-01" // invalid month

	rows := []*ImportRow{a, b, c}
	ValidateBatch(rows)

	summary := Summarize(rows)
	assert.Equal(t, 3, summary.TotalRows)
	assert.Equal(t, 2, summary.ValidRows)
	assert.Equal(t, 1, summary.InvalidRows)
	assert.Equal(t, 2, summary.RowsWithWarnings)

	// The gate opens exactly when no row is invalid.
	assert.False(t, Submittable(rows))
	c.ExamDate = "2025-12-03"
	ValidateBatch(rows)
	assert.True(t, Submittable(rows))
	assert.Zero(t, Summarize(rows).InvalidRows)
}
