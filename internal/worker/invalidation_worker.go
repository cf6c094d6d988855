package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"fintrack/internal/broadcast"
	"fintrack/internal/cache"
	"fintrack/internal/invalidation"
	"fintrack/internal/log"
)

// InvalidationWorker applies invalidation messages published by other
// sessions to the local query cache.
type InvalidationWorker struct {
	sub     broadcast.Subscriber
	cache   *cache.QueryCache
	session string
	dbname  string
	logger  *log.Logger
	events  *log.StructuredLogger

	onApplied func(keys []invalidation.Key, stale int)

	received atomic.Int64
	applied  atomic.Int64
	ignored  atomic.Int64
	rejected atomic.Int64
}

// Stats counts messages seen by the worker.
type Stats struct {
	Received int64
	Applied  int64
	Ignored  int64
	Rejected int64
}

type Option func(*InvalidationWorker)

// WithLogger overrides the worker logger.
func WithLogger(l *log.Logger) Option {
	return func(w *InvalidationWorker) {
		if l != nil {
			w.logger = l.WithComponent(log.ComponentWorker)
		}
	}
}

// OnApplied registers a callback run after every applied message.
func OnApplied(fn func(keys []invalidation.Key, stale int)) Option {
	return func(w *InvalidationWorker) { w.onApplied = fn }
}

// NewInvalidationWorker builds a worker for one session. Messages stamped
// with session are the session's own and are skipped, as are messages for
// a database other than dbname.
func NewInvalidationWorker(sub broadcast.Subscriber, c *cache.QueryCache, session, dbname string, opts ...Option) *InvalidationWorker {
	w := &InvalidationWorker{
		sub:     sub,
		cache:   c,
		session: session,
		dbname:  dbname,
		logger:  log.Default(log.ComponentWorker),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.events = log.NewStructuredLogger(w.logger)
	return w
}

// Run consumes messages until ctx is done. Cancellation is not an error.
func (w *InvalidationWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Invalidation worker started", log.FieldSession, w.session)
	err := w.sub.Subscribe(ctx, w.Handle)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("subscribe: %w", err)
	}
	w.logger.InfoContext(ctx, "Invalidation worker stopped",
		"received", w.received.Load(),
		"applied", w.applied.Load())
	return nil
}

// Handle applies one message. A message with malformed keys is rejected
// and nothing is invalidated.
func (w *InvalidationWorker) Handle(ctx context.Context, msg broadcast.Message) error {
	w.received.Add(1)

	if msg.Origin == w.session {
		w.ignored.Add(1)
		return nil
	}
	if msg.DBName != "" && msg.DBName != w.dbname {
		w.ignored.Add(1)
		w.logger.DebugContext(ctx, "Ignoring message for another database",
			log.FieldOrigin, msg.Origin, "dbname", msg.DBName)
		return nil
	}

	keys, err := msg.ParsedKeys()
	if err != nil {
		w.rejected.Add(1)
		w.logger.WarnContext(ctx, "Rejecting invalidation message",
			log.FieldOrigin, msg.Origin, log.FieldError, err)
		return fmt.Errorf("parse keys: %w", err)
	}

	stale := w.cache.Invalidate(keys...)
	w.applied.Add(1)
	w.events.LogInvalidation(ctx, msg.Origin, msg.Keys, stale)

	if w.onApplied != nil {
		w.onApplied(keys, stale)
	}
	return nil
}

func (w *InvalidationWorker) Stats() Stats {
	return Stats{
		Received: w.received.Load(),
		Applied:  w.applied.Load(),
		Ignored:  w.ignored.Load(),
		Rejected: w.rejected.Load(),
	}
}
