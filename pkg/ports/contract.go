package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunVisitRecorderContract verifies that a VisitRecorder implementation
// adheres to the interface contract. Adapter test suites (memory, redis)
// call this so behavior cannot drift between backends.
func RunVisitRecorderContract(t *testing.T, rec VisitRecorder) {
	ctx := context.Background()
	id := "contract-ctx-" + time.Now().Format("20060102150405")

	t.Run("Mark and Read", func(t *testing.T) {
		err := rec.MarkVisited(ctx, id, "Harbor_Night")
		require.NoError(t, err, "MarkVisited should not return error")

		v, err := rec.Visit(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, v.ContextID)
		assert.Equal(t, "Harbor_Night", v.Variant)
		assert.Equal(t, 1, v.Count)
		assert.False(t, v.VisitedAt.IsZero(), "VisitedAt should be set")
	})

	t.Run("Revisit Increments", func(t *testing.T) {
		err := rec.MarkVisited(ctx, id, "Harbor_Day")
		require.NoError(t, err)

		v, err := rec.Visit(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 2, v.Count)
		// Latest observed variant wins.
		assert.Equal(t, "Harbor_Day", v.Variant)
	})

	t.Run("Empty Variant Keeps Previous", func(t *testing.T) {
		err := rec.MarkVisited(ctx, id, "")
		require.NoError(t, err)

		v, err := rec.Visit(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, v.Count)
		assert.Equal(t, "Harbor_Day", v.Variant)
	})

	t.Run("Unknown Context", func(t *testing.T) {
		_, err := rec.Visit(ctx, "never-visited-"+id)
		assert.ErrorIs(t, err, ErrVisitNotFound)
	})

	t.Run("List", func(t *testing.T) {
		other := id + "-other"
		require.NoError(t, rec.MarkVisited(ctx, other, ""))

		visits, err := rec.List(ctx)
		require.NoError(t, err)

		ids := make([]string, 0, len(visits))
		for _, v := range visits {
			ids = append(ids, v.ContextID)
		}
		assert.Contains(t, ids, id)
		assert.Contains(t, ids, other)
	})
}
