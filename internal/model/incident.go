package model

import (
	"time"

	"github.com/google/uuid"
)

// IncidentSeverity grades a reported exam-day incident.
type IncidentSeverity string

const (
	IncidentSeverityInfo     IncidentSeverity = "INFO"
	IncidentSeverityMinor    IncidentSeverity = "MINOR"
	IncidentSeverityMajor    IncidentSeverity = "MAJOR"
	IncidentSeverityCritical IncidentSeverity = "CRITICAL"
)

// Incident is one reported occurrence during (or around) an exam session.
type Incident struct {
	ID          uuid.UUID        `json:"id"`
	SessionID   uuid.UUID        `json:"session_id"`
	ReportedBy  string           `json:"reported_by"`
	Severity    IncidentSeverity `json:"severity"`
	Description string           `json:"description"`
	ReportedAt  time.Time        `json:"reported_at"`
}

// ReportIncidentRequest is the payload for filing an incident report.
type ReportIncidentRequest struct {
	ReportedBy  string           `json:"reported_by" binding:"required,min=1,max=64"`
	Severity    IncidentSeverity `json:"severity" binding:"required,oneof=INFO MINOR MAJOR CRITICAL"`
	Description string           `json:"description" binding:"required,min=3,max=2000"`
}
