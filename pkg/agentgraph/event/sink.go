// Package event provides the best-effort event sink used by the workflow
// engine for observability emissions.
//
// Sinks are fire-and-forget: the engine swallows sink panics and never lets
// an emission failure affect a run. Implementations should not block.
package event

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Sink receives named events with an arbitrary payload.
type Sink interface {
	// Emit delivers an event. Best-effort; implementations should return
	// quickly and must tolerate being called concurrently.
	Emit(name string, payload any)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(name string, payload any)

// Emit implements Sink.
func (f SinkFunc) Emit(name string, payload any) { f(name, payload) }

// SlogSink logs every event through a slog logger at Debug level.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink backed by the given logger.
// A nil logger falls back to slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Emit implements Sink.
func (s *SlogSink) Emit(name string, payload any) {
	s.logger.Debug("workflow event",
		slog.String("event", name),
		slog.Any("payload", payload),
	)
}

// MultiSink fans one emission out to every child sink in order.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(name string, payload any) {
	for _, s := range m {
		if s != nil {
			s.Emit(name, payload)
		}
	}
}

// envelope pairs an event with its name for async delivery.
type envelope struct {
	name    string
	payload any
}

// AsyncSink decouples emission from delivery with a buffered channel and a
// single worker goroutine. When the buffer is full the event is dropped
// rather than blocking the engine.
type AsyncSink struct {
	sink    Sink
	ch      chan envelope
	done    chan struct{}
	closed  atomic.Bool
	dropped atomic.Int64
	wg      sync.WaitGroup
}

// NewAsyncSink wraps sink with asynchronous delivery.
// bufferSize <= 0 defaults to 256.
func NewAsyncSink(sink Sink, bufferSize int) *AsyncSink {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	a := &AsyncSink{
		sink: sink,
		ch:   make(chan envelope, bufferSize),
		done: make(chan struct{}),
	}
	a.wg.Add(1)
	go a.deliver()
	return a
}

// Emit implements Sink. Drops the event when the buffer is full or the
// sink is closed.
func (a *AsyncSink) Emit(name string, payload any) {
	if a.closed.Load() {
		a.dropped.Add(1)
		return
	}
	select {
	case a.ch <- envelope{name: name, payload: payload}:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns the number of events dropped so far.
func (a *AsyncSink) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops delivery after draining buffered events.
func (a *AsyncSink) Close() error {
	if a.closed.CompareAndSwap(false, true) {
		close(a.done)
		a.wg.Wait()
	}
	return nil
}

func (a *AsyncSink) deliver() {
	defer a.wg.Done()
	for {
		select {
		case evt := <-a.ch:
			a.safeEmit(evt)
		case <-a.done:
			// Drain what's buffered, then stop.
			for {
				select {
				case evt := <-a.ch:
					a.safeEmit(evt)
				default:
					return
				}
			}
		}
	}
}

func (a *AsyncSink) safeEmit(evt envelope) {
	defer func() {
		_ = recover() // a misbehaving sink must not kill the worker
	}()
	a.sink.Emit(evt.name, evt.payload)
}
