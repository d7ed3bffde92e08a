package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/core/model"
)

func TestMemoryNotifier(t *testing.T) {
	var n MemoryNotifier
	batch := []model.Allocation{{ID: "a1"}, {ID: "a2"}}
	require.NoError(t, n.NotifyAllocations(context.Background(), batch))
	require.NoError(t, n.NotifyAllocations(context.Background(), []model.Allocation{{ID: "a3"}}))
	batch[0].ID = "mutated"

	assert.Len(t, n.Batches(), 2)
	ids := []string{}
	for _, a := range n.Allocations() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, ids)

	n.Err = errors.New("down")
	assert.EqualError(t, n.NotifyAllocations(context.Background(), nil), "down")
	assert.NoError(t, NopNotifier{}.NotifyAllocations(context.Background(), batch))
}
