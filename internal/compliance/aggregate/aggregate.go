// Package aggregate rolls evaluated items up into dashboard figures. It never
// mutates its input.
package aggregate

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"
	"time"

	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
)

// Percentage is a score average that may have no data. JSON renders an
// invalid percentage as null so dashboards cannot mistake it for 0%.
type Percentage struct {
	Value float64
	Valid bool
}

func (p Percentage) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(math.Round(p.Value*100) / 100)
}

func (p *Percentage) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = Percentage{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Percentage{Value: v, Valid: true}
	return nil
}

// DeadlineKind says which date produced a deadline.
type DeadlineKind string

const (
	DeadlineReview DeadlineKind = "review"
	DeadlineExpiry DeadlineKind = "expiry"
	DeadlineGap    DeadlineKind = "gap"
)

// Deadline is one upcoming date on an item.
type Deadline struct {
	ItemID   id.ItemID        `json:"item_id"`
	GapID    *id.GapID        `json:"gap_id,omitempty"`
	Title    string           `json:"title"`
	Kind     DeadlineKind     `json:"kind"`
	Due      time.Time        `json:"due"`
	Status   models.Status    `json:"status"`
	Risk     models.RiskLevel `json:"risk_level"`
	Category string           `json:"category"`
}

// Report is a computed rollup; it is never persisted.
type Report struct {
	GeneratedAt       time.Time                `json:"generated_at"`
	ItemCount         int                      `json:"item_count"`
	OverallScore      Percentage               `json:"overall_score"`
	ScoresByCategory  map[string]Percentage    `json:"scores_by_category"`
	ScoresByOwner     map[string]Percentage    `json:"scores_by_owner"`
	CountsByStatus    map[models.Status]int    `json:"counts_by_status"`
	CountsByCategory  map[string]int           `json:"counts_by_category"`
	CountsByRisk      map[models.RiskLevel]int `json:"counts_by_risk"`
	OverdueGaps       int                      `json:"overdue_gaps"`
	UpcomingDeadlines []Deadline               `json:"upcoming_deadlines"`
}

type mean struct {
	sum   int
	count int
}

func (m *mean) add(v int) {
	m.sum += v
	m.count++
}

func (m mean) percentage() Percentage {
	if m.count == 0 {
		return Percentage{}
	}
	return Percentage{Value: float64(m.sum) / float64(m.count), Valid: true}
}

func scored(i *models.Item) bool {
	return !i.IsArchived() && i.Score != nil
}

// OverallScore averages the scores of non-archived items that have one.
func OverallScore(items []*models.Item) Percentage {
	var m mean
	for _, i := range items {
		if scored(i) {
			m.add(*i.Score)
		}
	}
	return m.percentage()
}

func scoresBy(items []*models.Item, key func(*models.Item) string) map[string]Percentage {
	groups := map[string]*mean{}
	for _, i := range items {
		if !scored(i) {
			continue
		}
		k := key(i)
		if groups[k] == nil {
			groups[k] = &mean{}
		}
		groups[k].add(*i.Score)
	}
	out := make(map[string]Percentage, len(groups))
	for k, m := range groups {
		out[k] = m.percentage()
	}
	return out
}

// ScoresByCategory averages scores per category.
func ScoresByCategory(items []*models.Item) map[string]Percentage {
	return scoresBy(items, func(i *models.Item) string { return i.Category })
}

// ScoresByOwner averages scores per owner id.
func ScoresByOwner(items []*models.Item) map[string]Percentage {
	return scoresBy(items, func(i *models.Item) string { return i.Owner.ID })
}

// CountsByStatus counts items per status, archived included.
func CountsByStatus(items []*models.Item) map[models.Status]int {
	out := map[models.Status]int{}
	for _, i := range items {
		out[i.Status]++
	}
	return out
}

// CountsByCategory counts items per category.
func CountsByCategory(items []*models.Item) map[string]int {
	out := map[string]int{}
	for _, i := range items {
		out[i.Category]++
	}
	return out
}

// CountsByRisk counts non-archived items per risk level.
func CountsByRisk(items []*models.Item) map[models.RiskLevel]int {
	out := map[models.RiskLevel]int{}
	for _, i := range items {
		if i.IsArchived() {
			continue
		}
		out[i.RiskLevel]++
	}
	return out
}

// OverdueGaps counts unresolved gaps past their due date on non-archived items.
func OverdueGaps(items []*models.Item, now time.Time) int {
	n := 0
	for _, i := range items {
		if i.IsArchived() {
			continue
		}
		for _, g := range i.Gaps {
			if g.Overdue(now) {
				n++
			}
		}
	}
	return n
}

// UpcomingDeadlines lists review, expiry and gap due dates falling within
// [now, now+withinDays], earliest first. Archived items are excluded.
func UpcomingDeadlines(items []*models.Item, now time.Time, withinDays int) []Deadline {
	out := []Deadline{}
	if withinDays < 0 {
		return out
	}
	end := now.AddDate(0, 0, withinDays)
	inRange := func(t *time.Time) bool {
		return t != nil && !t.Before(now) && !t.After(end)
	}
	for _, i := range items {
		if i.IsArchived() {
			continue
		}
		base := Deadline{ItemID: i.ID, Title: i.Title, Status: i.Status, Risk: i.RiskLevel, Category: i.Category}
		if inRange(i.NextReviewAt) {
			d := base
			d.Kind, d.Due = DeadlineReview, *i.NextReviewAt
			out = append(out, d)
		}
		if inRange(i.ExpiresAt) {
			d := base
			d.Kind, d.Due = DeadlineExpiry, *i.ExpiresAt
			out = append(out, d)
		}
		for _, g := range i.Gaps {
			if g.IsResolved() || !inRange(g.DueAt) {
				continue
			}
			gapID := g.ID
			d := base
			d.Kind, d.Due, d.GapID = DeadlineGap, *g.DueAt, &gapID
			d.Title = g.Description
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b Deadline) int {
		if c := a.Due.Compare(b.Due); c != 0 {
			return c
		}
		return cmp.Compare(a.ItemID.String(), b.ItemID.String())
	})
	return out
}

// Build computes the full report over already-evaluated snapshots.
func Build(items []*models.Item, now time.Time, withinDays int) *Report {
	return &Report{
		GeneratedAt:       now,
		ItemCount:         len(items),
		OverallScore:      OverallScore(items),
		ScoresByCategory:  ScoresByCategory(items),
		ScoresByOwner:     ScoresByOwner(items),
		CountsByStatus:    CountsByStatus(items),
		CountsByCategory:  CountsByCategory(items),
		CountsByRisk:      CountsByRisk(items),
		OverdueGaps:       OverdueGaps(items, now),
		UpcomingDeadlines: UpcomingDeadlines(items, now, withinDays),
	}
}
