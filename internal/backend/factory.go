package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"fintrack/internal/amqp"
	"fintrack/internal/broadcast"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/redisbus"
	"fintrack/internal/rpc"
	"fintrack/internal/rpc/httpclient"
	"fintrack/internal/rpc/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateProcedures implements Factory.CreateProcedures
func (f *DefaultFactory) CreateProcedures(ctx context.Context, config Config) (rpc.Procedures, error) {
	switch config.RPC {
	case HTTPRPC:
		var transport http.RoundTripper = http.DefaultTransport
		if config.RPCRateLimit > 0 {
			limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: config.RPCRateLimit})
			transport = limiter.Transport(transport)
		}
		transport = trace.NewTransport(transport, config.Session)

		client := httpclient.New(config.RPCURL, config.RPCTimeout,
			httpclient.WithTransport(transport),
			httpclient.WithLogger(log.New(log.Config{Handler: f.logger.Handler(), Component: log.ComponentRPC})))
		f.logger.InfoContext(ctx, "Initialized HTTP RPC backend",
			"url", config.RPCURL,
			"timeout", config.RPCTimeout,
			"rate_limit", config.RPCRateLimit)
		return client, nil
	case MemoryRPC:
		store, err := memory.NewFromFile(config.MemorySeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized memory RPC backend", "seed_file", config.MemorySeedFile)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported RPC backend: %s", config.RPC)
	}
}

// CreateBus implements Factory.CreateBus. Broadcasting is optional, so a
// bus that cannot connect is reported as an error the caller may downgrade
// to broadcast.Noop.
func (f *DefaultFactory) CreateBus(ctx context.Context, config Config) (broadcast.Bus, error) {
	switch config.Broadcast {
	case NoBroadcast, "":
		return broadcast.Noop{}, nil
	case AMQPBroadcast:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.QueueName())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized AMQP broadcast",
			"exchange", config.AMQPExchange,
			"queue", config.QueueName())
		return client, nil
	case RedisBroadcast:
		bus, err := redisbus.Dial(config.RedisAddr, config.RedisPassword, config.RedisDB, redisbus.Config{
			Stream:  config.RedisStream,
			Session: config.Session,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis broadcast: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Redis broadcast",
			"stream", config.RedisStream,
			"group", config.Session)
		return bus, nil
	default:
		return nil, fmt.Errorf("unsupported broadcast backend: %s", config.Broadcast)
	}
}

// Create builds both backends. A failing bus is replaced by broadcast.Noop
// and logged, since the session still works without cross-session
// invalidation.
func Create(ctx context.Context, f Factory, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	procs, err := f.CreateProcedures(ctx, config)
	if err != nil {
		return nil, err
	}

	bus, err := f.CreateBus(ctx, config)
	if err != nil {
		slog.WarnContext(ctx, "Broadcast unavailable, continuing without cross-session invalidation",
			"backend", config.Broadcast,
			"error", err)
		bus = broadcast.Noop{}
	}

	return &Result{
		Procedures: procs,
		Bus:        bus,
		Cleanup: func() error {
			var errs []error
			if err := bus.Close(); err != nil {
				errs = append(errs, fmt.Errorf("broadcast: %w", err))
			}
			return errors.Join(errs...)
		},
	}, nil
}
