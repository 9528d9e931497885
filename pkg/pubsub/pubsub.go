package pubsub

import (
	"sync"
)

// PubSub fans values out to every subscriber of a topic. Subscribers get a
// buffered channel; a subscriber that falls behind misses values instead of
// blocking the publisher.
type PubSub[T any] struct {
	mu     sync.Mutex
	subs   map[string][]chan T
	buffer int
	closed bool
}

func NewPubSub[T any](buffer int) *PubSub[T] {
	return &PubSub[T]{
		subs:   make(map[string][]chan T),
		buffer: buffer,
	}
}

func (ps *PubSub[T]) Subscribe(topic string) <-chan T {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ch := make(chan T, ps.buffer)
	if ps.closed {
		close(ch)
		return ch
	}
	ps.subs[topic] = append(ps.subs[topic], ch)
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (ps *PubSub[T]) Unsubscribe(topic string, sub <-chan T) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	chans := ps.subs[topic]
	for i, ch := range chans {
		if (<-chan T)(ch) == sub {
			ps.subs[topic] = append(chans[:i], chans[i+1:]...)
			close(ch)
			break
		}
	}
	if len(ps.subs[topic]) == 0 {
		delete(ps.subs, topic)
	}
}

// Publish delivers data to the subscribers of topic and returns how many
// received it.
func (ps *PubSub[T]) Publish(topic string, data T) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	n := 0
	for _, ch := range ps.subs[topic] {
		select {
		case ch <- data:
			n++
		default:
		}
	}
	return n
}

// Close closes every subscriber channel. Later subscriptions get a closed
// channel.
func (ps *PubSub[T]) Close() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return
	}
	ps.closed = true
	for topic, chans := range ps.subs {
		for _, ch := range chans {
			close(ch)
		}
		delete(ps.subs, topic)
	}
}
