package handler

import (
	"complytrack/internal/compliance/aggregate"
	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/models"
)

type ItemListResponse struct {
	Items []*models.Item `json:"items"`
	Count int            `json:"count"`
}

// GapResponse returns a gap together with its re-derived parent item.
type GapResponse struct {
	Gap  *models.Gap  `json:"gap"`
	Item *models.Item `json:"item"`
}

type GapListResponse struct {
	Gaps  []models.Gap `json:"gaps"`
	Count int          `json:"count"`
}

type RefreshResponse struct {
	Item    *models.Item `json:"item"`
	Changed bool         `json:"changed"`
}

type DeadlinesResponse struct {
	WithinDays int                  `json:"within_days"`
	Deadlines  []aggregate.Deadline `json:"deadlines"`
}

type AuditTrailResponse struct {
	Entries []audit.Entry `json:"entries"`
	Count   int           `json:"count"`
}

type SweepResponse struct {
	Checked    int   `json:"checked"`
	Changed    int   `json:"changed"`
	Failed     int   `json:"failed"`
	DurationMS int64 `json:"duration_ms"`
}
