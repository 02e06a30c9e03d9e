package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActor(t *testing.T) {
	ctx := context.Background()
	assert.True(t, Actor(ctx).IsZero())

	ctx = WithActor(ctx, ActorRef{ID: "staff-7", Name: "Priya Shah"})
	assert.Equal(t, "staff-7", Actor(ctx).ID)
	assert.Equal(t, "Priya Shah", Actor(ctx).Name)
}

func TestNow(t *testing.T) {
	ctx := context.Background()
	_, ok := TimeFrom(ctx)
	assert.False(t, ok)

	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx = WithTime(ctx, fixed)
	assert.Equal(t, fixed, Now(ctx))
}

func TestClientMetadata(t *testing.T) {
	ctx := WithClientMetadata(context.Background(), "10.0.0.1", "Firefox 120 (Linux)")
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "Firefox 120 (Linux)", UserAgent(ctx))
	assert.Equal(t, "", RequestID(ctx))
}
