// Package schedule implements the debounced, per-document lint scheduler.
//
// A single background worker consumes a queue of edit events and fires a
// "lint now" callback once a document has been quiet for its delay window.
// A newer hit on the same document supersedes an older one still waiting
// (debounce by overwrite); requests that raced with an already-fired newer
// hit are dropped by comparing against a shared last-run registry.
//
// Producers never block: Hit enqueues onto a buffered channel and returns.
// The worker never dies: every iteration recovers panics and keeps looping.
package schedule

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MinDelay is both the floor for debounce delays and the worker's queue
// receive timeout. The pending table is scanned at least this often.
const MinDelay = 100 * time.Millisecond

// queueSize bounds the number of undelivered messages. A full queue drops
// hits with a warning; the next edit re-enqueues, so nothing is lost for
// long.
const queueSize = 1024

// Callback is invoked by the worker when a document's debounce window
// elapses. enqueued is the timestamp of the hit that won, so the checking
// subsystem can verify the document hasn't changed since.
type Callback func(docID string, enqueued time.Time)

// Document is the view of a document the scheduler needs.
type Document interface {
	// ID returns the opaque document identifier.
	ID() string

	// DelayOverride returns a per-document debounce delay, if one is
	// configured (e.g. in a project rc file).
	DelayOverride() (time.Duration, bool)
}

// DelaySource provides the global delay setting. Implemented by the settings
// store.
type DelaySource interface {
	// LintDelay returns the configured global delay, false if unset.
	LintDelay() (time.Duration, bool)
}

// Daemon owns the scheduling worker. All producer-side methods are safe for
// concurrent use; the worker's pending table is touched only by the worker
// itself.
type Daemon struct {
	delays DelaySource
	queue  chan message
	log    *logrus.Entry

	mu       sync.Mutex
	running  bool
	callback Callback
	lastRuns map[string]time.Time
}

// New creates a stopped daemon. delays may be nil, in which case every hit
// uses MinDelay unless the document overrides it.
func New(delays DelaySource) *Daemon {
	return &Daemon{
		delays:   delays,
		queue:    make(chan message, queueSize),
		log:      logrus.WithField("component", "daemon"),
		lastRuns: make(map[string]time.Time),
	}
}

// Start launches the worker goroutine. Starting an already-running daemon
// does not spawn a second worker; it sends a reload instead, clearing all
// scheduling state. The worker exits when ctx is cancelled.
func (d *Daemon) Start(ctx context.Context, callback Callback) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		d.enqueue(reloadMessage{})
		return
	}
	d.running = true
	d.callback = callback
	d.mu.Unlock()

	go d.loop(ctx)
}

// Hit schedules a debounced check of doc and returns the enqueue timestamp
// so the caller can correlate it with the eventual callback. Never blocks.
func (d *Daemon) Hit(doc Document) time.Time {
	now := time.Now()
	d.enqueue(lintRequest{
		docID:    doc.ID(),
		enqueued: now,
		delay:    d.delayFor(doc),
	})
	return now
}

// Delay pauses the whole worker loop for the given duration. All documents
// wait; use sparingly (bulk operations).
func (d *Daemon) Delay(duration time.Duration) {
	d.enqueue(sleepMessage{duration: duration})
}

// Forget drops the last-run record for a closed document.
func (d *Daemon) Forget(docID string) {
	d.mu.Lock()
	delete(d.lastRuns, docID)
	d.mu.Unlock()
}

// delayFor resolves the debounce delay for a document: per-document override,
// then the global delay setting, then MinDelay.
func (d *Daemon) delayFor(doc Document) time.Duration {
	if delay, ok := doc.DelayOverride(); ok && delay > 0 {
		return delay
	}
	if d.delays != nil {
		if delay, ok := d.delays.LintDelay(); ok && delay > 0 {
			return delay
		}
	}
	return MinDelay
}

// enqueue delivers a message without blocking the producer.
func (d *Daemon) enqueue(m message) {
	select {
	case d.queue <- m:
	default:
		d.log.Warnf("queue full, dropping %T", m)
	}
}

// loop is the worker. pending is the worker-local table of documents waiting
// out their debounce window; nothing else reads or writes it.
func (d *Daemon) loop(ctx context.Context) {
	pending := make(map[string]lintRequest)
	for {
		if done := d.runOnce(ctx, pending); done {
			return
		}
	}
}

// runOnce performs one worker iteration. Panics are logged with a stack
// trace and swallowed; the scheduler runs unattended for the process
// lifetime and must never terminate on a processing error.
func (d *Daemon) runOnce(ctx context.Context, pending map[string]lintRequest) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("panic in scheduler: %v\n%s", r, debug.Stack())
		}
	}()

	select {
	case <-ctx.Done():
		return true
	case m := <-d.queue:
		d.process(m, pending)
	case <-time.After(MinDelay):
		d.fireElapsed(pending)
	}
	return false
}

// process handles one queue message.
func (d *Daemon) process(m message, pending map[string]lintRequest) {
	switch msg := m.(type) {
	case lintRequest:
		if d.superseded(msg) {
			return
		}
		// Debounce: a new edit overwrites the pending entry, resetting the
		// wait for that document.
		pending[msg.docID] = msg

	case sleepMessage:
		time.Sleep(msg.duration)

	case reloadMessage:
		d.log.Info("daemon detected a reload")
		d.mu.Lock()
		d.lastRuns = make(map[string]time.Time)
		d.mu.Unlock()
		clear(pending)

	default:
		d.log.Warnf("unknown message sent to daemon: %T", m)
	}
}

// superseded reports whether a request raced with an already-fired newer (or
// equal) hit for the same document. Ties favor the fired run, so an
// equal-timestamp request can never double-fire.
func (d *Daemon) superseded(req lintRequest) bool {
	d.mu.Lock()
	last, ok := d.lastRuns[req.docID]
	d.mu.Unlock()
	return ok && !req.enqueued.After(last)
}

// fireElapsed invokes the callback for every pending document whose debounce
// window has passed, recording the fire time in the shared last-run
// registry.
func (d *Daemon) fireElapsed(pending map[string]lintRequest) {
	now := time.Now()
	for docID, req := range pending {
		if now.Before(req.enqueued.Add(req.delay)) {
			continue
		}
		d.mu.Lock()
		d.lastRuns[docID] = now
		d.mu.Unlock()
		delete(pending, docID)
		d.callback(docID, req.enqueued)
	}
}
