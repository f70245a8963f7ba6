package actuate

import (
	"sync"

	"github.com/sweeney/seat-heater/internal/logic"
)

// Applier is what the worker drives. Satisfied by *Actuator.
type Applier interface {
	Apply(d logic.Decision) []Result
}

// Worker serializes hardware application on a dedicated goroutine.
// At most one Apply is in flight at a time, and rapid successive
// decisions coalesce: a newer submission replaces an unapplied older
// one, so stale decisions are never queued.
type Worker struct {
	mailbox   chan logic.Decision
	quit      chan struct{}
	wg        sync.WaitGroup
	onResults func([]Result)
}

// NewWorker starts the apply goroutine. onResults, if non-nil, is called
// from the worker goroutine with each Apply's outcome.
func NewWorker(a Applier, onResults func([]Result)) *Worker {
	w := &Worker{
		mailbox:   make(chan logic.Decision, 1),
		quit:      make(chan struct{}),
		onResults: onResults,
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.quit:
				return
			case d := <-w.mailbox:
				results := a.Apply(d)
				if w.onResults != nil {
					w.onResults(results)
				}
			}
		}
	}()
	return w
}

// Submit hands a decision to the worker without blocking. If a decision
// is already waiting, it is replaced: only the latest decision gets
// applied.
func (w *Worker) Submit(d logic.Decision) {
	for {
		select {
		case w.mailbox <- d:
			return
		default:
		}
		// Mailbox full: drop the stale decision and retry.
		select {
		case <-w.mailbox:
		default:
		}
	}
}

// Close stops the worker. It deliberately does not zero the heaters:
// hardware stays at its last-applied level on shutdown.
func (w *Worker) Close() {
	close(w.quit)
	w.wg.Wait()
}
