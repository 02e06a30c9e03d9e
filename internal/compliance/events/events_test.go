package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complytrack/internal/compliance/events"
	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
)

func TestDiff(t *testing.T) {
	at := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	before := &models.Item{
		ID:        id.NewItemID(),
		Title:     "Enhanced DBS",
		Status:    models.StatusCompliant,
		RiskLevel: models.RiskLow,
		Gaps:      []models.Gap{{ID: id.NewGapID(), Status: models.GapOpen}},
	}

	t.Run("creation emits a status fact", func(t *testing.T) {
		got := events.Diff(nil, before, at)
		require.Len(t, got, 2)
		assert.Equal(t, events.TypeStatusChanged, got[0].Type)
		assert.Empty(t, got[0].PreviousStatus)
		assert.Equal(t, events.TypeGapOpened, got[1].Type)
	})

	t.Run("no change emits nothing", func(t *testing.T) {
		assert.Empty(t, events.Diff(before, before.Clone(), at))
	})

	t.Run("status and gap changes", func(t *testing.T) {
		after := before.Clone()
		after.Status = models.StatusNonCompliant
		after.RiskLevel = models.RiskHigh
		after.Gaps[0].Status = models.GapResolved
		newGap := id.NewGapID()
		after.Gaps = append(after.Gaps, models.Gap{ID: newGap, Status: models.GapOpen})

		got := events.Diff(before, after, at)
		require.Len(t, got, 3)
		assert.Equal(t, models.StatusCompliant, got[0].PreviousStatus)
		assert.Equal(t, models.StatusNonCompliant, got[0].Status)
		assert.Equal(t, events.TypeGapResolved, got[1].Type)
		assert.Equal(t, events.TypeGapOpened, got[2].Type)
		assert.Equal(t, newGap, *got[2].GapID)
	})
}

func TestRecorder(t *testing.T) {
	r := events.NewRecorder()
	require.NoError(t, r.Publish(context.Background(), events.Event{Type: events.TypeStatusChanged}))
	assert.Len(t, r.Events(), 1)
	r.Reset()
	assert.Empty(t, r.Events())
}
