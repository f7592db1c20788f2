package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeReceivesMatchingTypes(t *testing.T) {
	bus := NewBus()

	id, ch := bus.Subscribe(ArmSelected)
	defer bus.Unsubscribe(id)

	bus.Emit(ArmSelected, map[string]any{"arm_id": "a"})
	bus.Emit(DecisionMade, nil)

	ev := <-ch
	assert.Equal(t, ArmSelected, ev.Type)
	assert.Equal(t, "a", ev.Data["arm_id"])
	assert.False(t, ev.At.IsZero())

	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %v for a filtered subscriber", extra.Type)
	default:
	}
}

func TestBus_SubscribeAllTypes(t *testing.T) {
	bus := NewBus()

	id, ch := bus.Subscribe()
	defer bus.Unsubscribe(id)

	bus.Emit(ArmSelected, nil)
	bus.Emit(OutcomeReported, nil)

	assert.Equal(t, ArmSelected, (<-ch).Type)
	assert.Equal(t, OutcomeReported, (<-ch).Type)
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := NewBus(WithBufferSize(2))

	id, _ := bus.Subscribe()
	defer bus.Unsubscribe(id)

	// Nobody reads; publishes beyond the buffer must drop, not stall.
	for i := 0; i < 10; i++ {
		bus.Emit(DecisionMade, nil)
	}

	assert.Equal(t, uint64(8), bus.Dropped())
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()

	id, ch := bus.Subscribe()
	bus.Unsubscribe(id)

	_, open := <-ch
	require.False(t, open, "channel should be closed after unsubscribe")

	// Unknown id is a no-op.
	bus.Unsubscribe(999)

	// Publishing after unsubscribe reaches nobody and does not panic.
	bus.Emit(DecisionMade, nil)
	assert.Zero(t, bus.Dropped())
}

func TestBus_MultipleSubscribersFanOut(t *testing.T) {
	bus := NewBus()

	idA, chA := bus.Subscribe(EmbeddingGenerated)
	idB, chB := bus.Subscribe(EmbeddingGenerated, ClusteringCompleted)
	defer bus.Unsubscribe(idA)
	defer bus.Unsubscribe(idB)

	bus.Emit(EmbeddingGenerated, map[string]any{"user_id": "u1"})

	assert.Equal(t, "u1", (<-chA).Data["user_id"])
	assert.Equal(t, "u1", (<-chB).Data["user_id"])
}
