package mqtt

import "log"

// pendingMsg is one serialized event waiting for the broker to come back.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// replayBuffer holds events published while the broker is unreachable,
// oldest first. Once full it drops from the front, so the newest state
// survives an extended outage. Not safe for concurrent use; the
// publisher's mutex covers it.
type replayBuffer struct {
	msgs    []pendingMsg
	cap     int
	dropped int // events discarded since the last drain
}

func newReplayBuffer(capacity int) *replayBuffer {
	return &replayBuffer{cap: capacity}
}

func (b *replayBuffer) push(m pendingMsg) {
	if len(b.msgs) == b.cap {
		if b.dropped == 0 {
			log.Printf("mqtt: replay buffer full (%d events), dropping oldest", b.cap)
		}
		b.dropped++
		copy(b.msgs, b.msgs[1:])
		b.msgs = b.msgs[:b.cap-1]
	}
	b.msgs = append(b.msgs, m)
}

// drain returns the pending events in publish order and empties the buffer.
func (b *replayBuffer) drain() []pendingMsg {
	if len(b.msgs) == 0 {
		return nil
	}
	out := b.msgs
	b.msgs = nil
	b.dropped = 0
	return out
}

func (b *replayBuffer) len() int {
	return len(b.msgs)
}
