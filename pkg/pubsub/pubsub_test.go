package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFanOut(t *testing.T) {
	ps := NewPubSub[int](1)
	a := ps.Subscribe("race/1")
	b := ps.Subscribe("race/1")
	other := ps.Subscribe("race/2")

	assert.Equal(t, 2, ps.Publish("race/1", 7))
	assert.Equal(t, 7, <-a)
	assert.Equal(t, 7, <-b)
	assert.Empty(t, other)
}

func TestPublishSkipsSlowSubscriber(t *testing.T) {
	ps := NewPubSub[string](1)
	ch := ps.Subscribe("t")

	assert.Equal(t, 1, ps.Publish("t", "first"))
	assert.Equal(t, 0, ps.Publish("t", "second"))
	assert.Equal(t, "first", <-ch)
}

func TestUnsubscribe(t *testing.T) {
	ps := NewPubSub[int](1)
	a := ps.Subscribe("t")
	b := ps.Subscribe("t")

	ps.Unsubscribe("t", a)
	_, ok := <-a
	assert.False(t, ok, "unsubscribed channel is closed")

	assert.Equal(t, 1, ps.Publish("t", 1))
	assert.Equal(t, 1, <-b)

	ps.Unsubscribe("t", b)
	assert.Equal(t, 0, ps.Publish("t", 2))
}

func TestClose(t *testing.T) {
	ps := NewPubSub[int](0)
	ch := ps.Subscribe("t")
	ps.Close()
	ps.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late := ps.Subscribe("t")
	_, ok = <-late
	require.False(t, ok)
	assert.Equal(t, 0, ps.Publish("t", 1))
}
