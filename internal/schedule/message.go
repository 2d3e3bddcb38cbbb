package schedule

import "time"

// message is the tagged variant carried on the daemon queue. Exactly three
// kinds exist: a lint request, a cooperative sleep, and a reload marker.
type message interface {
	isMessage()
}

// lintRequest asks the worker to schedule a debounced check of a document.
type lintRequest struct {
	// docID identifies the document to check.
	docID string

	// enqueued is the time the request was created on the producer side.
	enqueued time.Time

	// delay is how long after enqueued the check should fire.
	delay time.Duration
}

// sleepMessage pauses the whole worker loop for the given duration. Used to
// hold off checking during bulk operations.
type sleepMessage struct {
	duration time.Duration
}

// reloadMessage clears all scheduling state after the owning application
// hot-reloads, so stale last-run timestamps don't suppress new requests.
type reloadMessage struct{}

func (lintRequest) isMessage()   {}
func (sleepMessage) isMessage()  {}
func (reloadMessage) isMessage() {}
