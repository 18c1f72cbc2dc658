// Package publisher fronts an audit.Sink with optional buffering so request
// paths never wait on a slow broker.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "complio/pkg/platform/audit"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrBufferFull is returned when the async buffer cannot take another event.
	ErrBufferFull = errors.New("audit buffer full")
	// ErrClosed is returned for emits after Close.
	ErrClosed = errors.New("audit publisher closed")
)

const defaultBatchSize = 64

type Publisher struct {
	sink      audit.Sink
	logger    *slog.Logger
	metrics   *Metrics
	bufSize   int
	batchSize int

	mu     sync.RWMutex
	closed bool
	events chan audit.Event
	done   chan struct{}
}

type Option func(*Publisher)

// WithAsyncBuffer enables background delivery with a buffer of n events.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

func WithBatchSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(sink audit.Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:      sink,
		logger:    slog.Default(),
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize > 0 {
		p.events = make(chan audit.Event, p.bufSize)
		p.done = make(chan struct{})
		go p.run()
	}
	return p
}

// Emit delivers the event, or queues it when the publisher is async. A full
// queue drops the event rather than blocking the caller.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if sc := trace.SpanContextFromContext(ctx); event.TraceID == "" && sc.HasTraceID() {
		event.TraceID = sc.TraceID().String()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	if p.events == nil {
		if err := p.sink.Write(ctx, []audit.Event{event}); err != nil {
			p.metrics.incSinkFailure()
			return err
		}
		p.metrics.incEmitted(event.Stream, 1)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.events <- event:
		return nil
	default:
		p.metrics.incDropped(event.Stream)
		return ErrBufferFull
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if p.events != nil {
		close(p.events)
		<-p.done
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	batch := make([]audit.Event, 0, p.batchSize)
	for event := range p.events {
		batch = append(batch, event)
	fill:
		for len(batch) < p.batchSize {
			select {
			case next, ok := <-p.events:
				if !ok {
					break fill
				}
				batch = append(batch, next)
			default:
				break fill
			}
		}
		p.flush(batch)
		batch = batch[:0]
	}
}

func (p *Publisher) flush(batch []audit.Event) {
	// Detached from any request; the queue outlives the caller.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.sink.Write(ctx, batch); err != nil {
		p.metrics.incSinkFailure()
		p.logger.Error("audit sink write failed", "error", err, "events", len(batch))
		return
	}
	for _, e := range batch {
		p.metrics.incEmitted(e.Stream, 1)
	}
}
