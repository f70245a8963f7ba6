package mqtt

import "testing"

func TestReplayBufferEmptyDrain(t *testing.T) {
	b := newReplayBuffer(10)
	if got := b.drain(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestReplayBufferPushAndDrain(t *testing.T) {
	b := newReplayBuffer(10)
	for i := 0; i < 5; i++ {
		b.push(pendingMsg{topic: Topic, payload: []byte{byte(i)}})
	}

	got := b.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := range got {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	if got := b.drain(); got != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got))
	}
}

func TestReplayBufferOverflowKeepsNewest(t *testing.T) {
	b := newReplayBuffer(5)

	// Push 8 items; the buffer keeps the most recent 5 (3..7).
	for i := 0; i < 8; i++ {
		b.push(pendingMsg{topic: Topic, payload: []byte{byte(i)}})
	}

	got := b.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := range got {
		want := byte(i + 3)
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
}

func TestReplayBufferMultipleCycles(t *testing.T) {
	b := newReplayBuffer(5)

	for i := 0; i < 3; i++ {
		b.push(pendingMsg{topic: Topic, payload: []byte{byte(i)}})
	}
	if got := b.drain(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		b.push(pendingMsg{topic: Topic, payload: []byte{byte(i)}})
	}
	got := b.drain()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		if want := byte(10 + i); msg.payload[0] != want {
			t.Errorf("cycle 2 item %d: expected %d, got %d", i, want, msg.payload[0])
		}
	}
}

func TestReplayBufferLen(t *testing.T) {
	b := newReplayBuffer(10)
	if b.len() != 0 {
		t.Errorf("expected len 0, got %d", b.len())
	}
	b.push(pendingMsg{topic: Topic})
	b.push(pendingMsg{topic: Topic})
	if b.len() != 2 {
		t.Errorf("expected len 2, got %d", b.len())
	}
	b.drain()
	if b.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", b.len())
	}
}

func TestReplayBufferPreservesFields(t *testing.T) {
	b := newReplayBuffer(10)
	b.push(pendingMsg{
		topic:    TopicSystem,
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got := b.drain()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != TopicSystem {
		t.Errorf("topic: got %s, want %s", got[0].topic, TopicSystem)
	}
	if got[0].qos != 1 || !got[0].retained {
		t.Errorf("qos/retained lost: %+v", got[0])
	}
}
