package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "complytrack/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseItemID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseGapID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseEntryID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseItemID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, ItemID(validUUID), id)
	})

	t.Run("reports the offending field", func(t *testing.T) {
		_, err := ParseGapID("nope")
		de, ok := dErrors.As(err)
		require.True(t, ok)
		assert.Equal(t, "gap_id", de.Field)
	})
}

func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"sql injection", "'; DROP TABLE compliance_items;--"},
		{"trailing null byte", uuid.NewString() + "\x00"},
		{"whitespace padded", " " + uuid.NewString() + " "},
		{"oversized", strings.Repeat("a", 4096)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseItemID(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestIDJSONRoundTrip(t *testing.T) {
	type payload struct {
		Item ItemID `json:"item_id"`
		Gap  GapID  `json:"gap_id"`
	}
	in := payload{Item: NewItemID(), Gap: NewGapID()}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), in.Item.String())

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}
