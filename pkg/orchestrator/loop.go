package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/teslashibe/go-framing/pkg/detection"
)

// ErrLoopStopped is returned by Do once the loop has exited.
var ErrLoopStopped = errors.New("orchestrator: loop stopped")

type event struct {
	fn   func(*Orchestrator) error
	done chan error
}

// Loop runs an Orchestrator on a single goroutine. Frames are submitted
// through a one-slot keep-latest buffer, so a slow orchestrator drops stale
// frames rather than queueing them. UI events are queued in order and run
// between frames.
type Loop struct {
	orch    *Orchestrator
	frames  chan detection.Frame
	events  chan event
	stopped chan struct{}

	submitted atomic.Uint64
	dropped   atomic.Uint64
}

// NewLoop creates a loop around o. Call Run to start it.
func NewLoop(o *Orchestrator) *Loop {
	return &Loop{
		orch:    o,
		frames:  make(chan detection.Frame, 1),
		events:  make(chan event, 64),
		stopped: make(chan struct{}),
	}
}

// Orchestrator returns the owned orchestrator. Only its concurrency-safe
// getters may be called from outside the loop.
func (l *Loop) Orchestrator() *Orchestrator {
	return l.orch
}

// Submit hands a frame to the loop, replacing any frame still waiting.
// It never blocks.
func (l *Loop) Submit(frame detection.Frame) {
	l.submitted.Add(1)
	for {
		select {
		case l.frames <- frame:
			return
		default:
		}
		select {
		case <-l.frames:
			l.dropped.Add(1)
		default:
		}
	}
}

// Dropped returns how many submitted frames were replaced before processing.
func (l *Loop) Dropped() uint64 {
	return l.dropped.Load()
}

// Submitted returns how many frames were submitted.
func (l *Loop) Submitted() uint64 {
	return l.submitted.Load()
}

// Do runs fn on the loop goroutine and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func(*Orchestrator) error) error {
	ev := event{fn: fn, done: make(chan error, 1)}
	select {
	case l.events <- ev:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ev.done:
		return err
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes frames and events until ctx is cancelled. In-flight
// detector calls are awaited before it returns.
func (l *Loop) Run(ctx context.Context) error {
	defer l.orch.Close()
	defer close(l.stopped)

	l.orch.logger.Info("frame loop started")
	for {
		// Pending UI events run before the next frame.
		select {
		case ev := <-l.events:
			l.handle(ev)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			l.orch.logger.Info("frame loop stopped",
				"submitted", l.submitted.Load(), "dropped", l.dropped.Load())
			return ctx.Err()
		case ev := <-l.events:
			l.handle(ev)
		case frame := <-l.frames:
			l.orch.ProcessFrame(ctx, frame)
		}
	}
}

func (l *Loop) handle(ev event) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				l.orch.logger.Error("event panicked", "panic", r)
				err = errors.New("orchestrator: event panicked")
			}
		}()
		err = ev.fn(l.orch)
	}()
	ev.done <- err
}
