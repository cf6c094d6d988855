package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/broadcast"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/filter"
	"fintrack/internal/invalidation"
	"fintrack/internal/log"
	"fintrack/internal/rpc"
)

var (
	// ErrSuperseded is returned when the filter changed while a list was
	// loading. The caller should read again with the new filter.
	ErrSuperseded = errors.New("filter changed while loading")
	// ErrBusy is returned for a second delete of an id whose first delete
	// has not finished.
	ErrBusy = errors.New("operation already in progress")
	// ErrUnknownUser is returned when the username does not exist in dbname.
	ErrUnknownUser = errors.New("unknown user")
)

const defaultConcurrency = 4

// Options configures a TrackerService.
type Options struct {
	// Session tags outgoing invalidation messages.
	Session string
	// FetchConcurrency bounds parallel balance fetches.
	FetchConcurrency int
	Logger           *log.Logger
}

// TrackerService runs one user session: the filter store, the query cache,
// the remote procedures and the invalidation broadcast.
type TrackerService struct {
	procs       rpc.Procedures
	cache       *cache.QueryCache
	store       *filter.Store
	pub         broadcast.Publisher
	user        core.User
	session     string
	concurrency int
	logger      *log.Logger
	events      *log.StructuredLogger

	busyMu sync.Mutex
	busy   map[string]struct{}
}

// NewTrackerService wires a session. pub may be nil when broadcasting is off.
func NewTrackerService(procs rpc.Procedures, c *cache.QueryCache, store *filter.Store, pub broadcast.Publisher, user core.User, opts Options) *TrackerService {
	if opts.FetchConcurrency < 1 {
		opts.FetchConcurrency = defaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentTracker)
	}
	logger = logger.WithComponent(log.ComponentTracker).With(log.FieldSession, opts.Session)
	return &TrackerService{
		procs:       procs,
		cache:       c,
		store:       store,
		pub:         pub,
		user:        user,
		session:     opts.Session,
		concurrency: opts.FetchConcurrency,
		logger:      logger,
		events:      log.NewStructuredLogger(logger),
		busy:        make(map[string]struct{}),
	}
}

// ResolveUser looks the session user up through the cache.
func ResolveUser(ctx context.Context, procs rpc.Procedures, c *cache.QueryCache, username, dbname string) (core.User, error) {
	req := rpc.FindUserRequest{Username: username, DBName: dbname}
	user, err := cache.Fetch(ctx, c, invalidation.User(username), func(ctx context.Context) (*core.User, error) {
		return procs.FindUser(ctx, req)
	})
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		// A miss is not worth keeping; the user may be created later.
		c.Delete(invalidation.User(username))
		return core.User{}, fmt.Errorf("%w: %s@%s", ErrUnknownUser, username, dbname)
	}
	return *user, nil
}

func (s *TrackerService) User() core.User          { return s.user }
func (s *TrackerService) Session() string          { return s.session }
func (s *TrackerService) Store() *filter.Store     { return s.store }
func (s *TrackerService) Cache() *cache.QueryCache { return s.cache }

func (s *TrackerService) scope() rpc.Scope {
	return rpc.Scope{UserID: s.user.ID, DBName: s.user.DBName}
}

// Dispatch applies filter actions to the session store.
func (s *TrackerService) Dispatch(actions ...filter.Action) filter.State {
	return s.store.Dispatch(actions...)
}

// Refresh marks every cached result stale.
func (s *TrackerService) Refresh() int {
	return s.cache.InvalidateAll()
}

// acquire marks id busy for the duration of one mutation.
func (s *TrackerService) acquire(id string) (release func(), err error) {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	if _, ok := s.busy[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrBusy, id)
	}
	s.busy[id] = struct{}{}
	return func() {
		s.busyMu.Lock()
		delete(s.busy, id)
		s.busyMu.Unlock()
	}, nil
}

// commit invalidates keys locally and broadcasts them to other sessions.
// A failed broadcast is logged only: the mutation already happened and the
// local cache is consistent.
func (s *TrackerService) commit(ctx context.Context, op, entityID string, keys []invalidation.Key) {
	stale := s.cache.Invalidate(keys...)
	s.events.LogMutation(ctx, op, entityID, invalidation.Strings(keys))
	s.logger.DebugContext(ctx, "Cache entries marked stale", "count", stale)

	if s.pub == nil || len(keys) == 0 {
		return
	}
	msg := broadcast.NewMessage(s.session, s.user.ID, s.user.DBName, keys)
	if err := s.pub.Publish(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to broadcast invalidation",
			log.FieldComponent, log.ComponentBroadcast,
			log.FieldKeyCount, len(keys),
			log.FieldError, err)
	}
}
