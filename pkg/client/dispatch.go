package client

import "sync"

// Executor schedules a function for execution on a designated context,
// such as the thread that owns a UI. Schedule may block until the
// executor accepts the task, but an accepted task is always run:
// submissions queue rather than deadlock when the executor is busy.
type Executor interface {
	Schedule(fn func())
}

// DirectExecutor runs scheduled functions inline on the calling
// goroutine. Useful when the consumer has no thread-affinity
// requirement.
type DirectExecutor struct{}

// Schedule runs fn immediately.
func (DirectExecutor) Schedule(fn func()) { fn() }

// SerialExecutor runs scheduled functions one at a time, in submission
// order, on a single dedicated goroutine. It is the equivalent of
// marshalling work onto a UI-owning thread.
type SerialExecutor struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewSerialExecutor starts the executor's goroutine and returns it.
// Close must be called to release the goroutine.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}

	go func() {
		defer close(e.done)
		for fn := range e.tasks {
			fn()
		}
	}()

	return e
}

// Schedule enqueues fn for execution. It blocks only when the queue is
// full, until the drain goroutine makes room.
func (e *SerialExecutor) Schedule(fn func()) {
	e.tasks <- fn
}

// Close stops accepting tasks and waits for already-queued ones to run.
func (e *SerialExecutor) Close() {
	e.closeOnce.Do(func() {
		close(e.tasks)
	})
	<-e.done
}

// Handler is the consumer's callback capability, a closed variant
// chosen once at registration: either a one-argument form receiving
// the event alone, or a two-argument form that also receives the
// status tag ("stop", "error", or the frame's finish reason).
type Handler struct {
	event       func(Event)
	eventStatus func(Event, string)
}

// OnEvent registers a one-argument callback.
func OnEvent(fn func(Event)) Handler {
	return Handler{event: fn}
}

// OnEventStatus registers a two-argument callback.
func OnEventStatus(fn func(Event, string)) Handler {
	return Handler{eventStatus: fn}
}

// dispatcher delivers events to a single handler through an executor,
// so decoding never runs inside, or blocks on, the consumer's context.
type dispatcher struct {
	exec    Executor
	handler Handler
}

// deliver schedules exactly one invocation of the registered callback
// shape for the event. Events are scheduled in the order deliver is
// called; a serial executor therefore preserves frame arrival order.
func (d dispatcher) deliver(ev Event) {
	h := d.handler
	switch {
	case h.eventStatus != nil:
		d.exec.Schedule(func() { h.eventStatus(ev, ev.Status()) })
	case h.event != nil:
		d.exec.Schedule(func() { h.event(ev) })
	}
}
