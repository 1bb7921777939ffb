package prose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

func labels(ents []driven.Entity) map[string]string {
	out := make(map[string]string, len(ents))
	for _, e := range ents {
		out[e.Text] = e.Label
	}
	return out
}

func TestEntities_FindsPeopleAndPlaces(t *testing.T) {
	text := "Barack Obama met Angela Merkel in Berlin on Tuesday. Barack Obama flew home afterwards."

	ents, err := NewRecogniser().Entities(context.Background(), text)
	require.NoError(t, err)

	got := labels(ents)
	assert.Equal(t, "PERSON", got["Barack Obama"])
	assert.Equal(t, "GPE", got["Berlin"])

	count := 0
	for _, e := range ents {
		if e.Text == "Barack Obama" {
			count++
		}
	}
	assert.Equal(t, 1, count, "entities are deduplicated")
}

func TestEntities_Empty(t *testing.T) {
	ents, err := NewRecogniser().Entities(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestEntities_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRecogniser().Entities(ctx, "Paris")
	assert.ErrorIs(t, err, context.Canceled)
}
