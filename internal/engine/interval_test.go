package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInterval(t *testing.T, date, start, end string) Interval {
	t.Helper()
	iv, err := NewInterval(date, start, end)
	require.NoError(t, err)
	return iv
}

func TestNewInterval(t *testing.T) {
	tests := []struct {
		name             string
		date, start, end string
		wantErr          bool
	}{
		{"valid morning slot", "2025-12-01", "09:00", "12:00", false},
		{"end equals start", "2025-12-01", "09:00", "09:00", true},
		{"end before start", "2025-12-01", "12:00", "09:00", true},
		{"bad date", "01-12-2025", "09:00", "12:00", true},
		{"impossible date", "2025-13-01", "09:00", "12:00", true},
		{"bad start time", "2025-12-01", "9am", "12:00", true},
		{"bad end time", "2025-12-01", "09:00", "25:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := NewInterval(tt.date, tt.start, tt.end)
			if tt.wantErr {
				var invErr *InvalidIntervalError
				assert.ErrorAs(t, err, &invErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.date, iv.Date)
			assert.Greater(t, iv.End, iv.Start)
		})
	}
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{
			"same slot",
			mustInterval(t, "2025-12-01", "09:00", "12:00"),
			mustInterval(t, "2025-12-01", "09:00", "12:00"),
			true,
		},
		{
			"b starts inside a",
			mustInterval(t, "2025-12-01", "09:00", "12:00"),
			mustInterval(t, "2025-12-01", "10:00", "13:00"),
			true,
		},
		{
			"b ends inside a",
			mustInterval(t, "2025-12-01", "09:00", "12:00"),
			mustInterval(t, "2025-12-01", "08:00", "10:00"),
			true,
		},
		{
			"a contains b",
			mustInterval(t, "2025-12-01", "08:00", "14:00"),
			mustInterval(t, "2025-12-01", "09:00", "12:00"),
			true,
		},
		{
			"touching intervals do not overlap",
			mustInterval(t, "2025-12-01", "09:00", "12:00"),
			mustInterval(t, "2025-12-01", "12:00", "15:00"),
			false,
		},
		{
			"disjoint same day",
			mustInterval(t, "2025-12-01", "09:00", "10:00"),
			mustInterval(t, "2025-12-01", "14:00", "16:00"),
			false,
		},
		{
			"same clock span, different day",
			mustInterval(t, "2025-12-01", "09:00", "12:00"),
			mustInterval(t, "2025-12-02", "09:00", "12:00"),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// Overlap is symmetric for every pair.
			assert.Equal(t, tt.a.Overlaps(tt.b), tt.b.Overlaps(tt.a))
		})
	}
}

func TestIntervalHelpers(t *testing.T) {
	iv := mustInterval(t, "2025-12-01", "09:30", "12:00")
	assert.Equal(t, 150, iv.Minutes())
	assert.Equal(t, "09:30-12:00", iv.TimeRange())
}
