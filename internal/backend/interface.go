package backend

import (
	"context"
	"time"

	"fintrack/internal/broadcast"
	"fintrack/internal/rpc"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result bundles what a session needs from its backends.
type Result struct {
	Procedures rpc.Procedures
	Bus        broadcast.Bus
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateProcedures creates the RPC transport selected by config.
	CreateProcedures(ctx context.Context, config Config) (rpc.Procedures, error)
	// CreateBus creates the broadcast transport selected by config.
	CreateBus(ctx context.Context, config Config) (broadcast.Bus, error)
}

// Config holds configuration for backend creation
type Config struct {
	RPC       RPCType
	Broadcast BroadcastType

	// Session identifies this process on the broadcast bus.
	Session string

	// HTTP RPC
	RPCURL     string
	RPCTimeout time.Duration
	// RPCRateLimit caps calls per minute per procedure; 0 disables it.
	RPCRateLimit int

	// Memory RPC
	MemorySeedFile string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string
}

// RPCType selects the procedures transport
type RPCType string

const (
	HTTPRPC   RPCType = "http"
	MemoryRPC RPCType = "memory"
)

// String implements fmt.Stringer
func (t RPCType) String() string {
	return string(t)
}

// IsValid returns true if the RPC type is valid
func (t RPCType) IsValid() bool {
	switch t {
	case HTTPRPC, MemoryRPC:
		return true
	default:
		return false
	}
}

// BroadcastType selects the invalidation bus
type BroadcastType string

const (
	NoBroadcast    BroadcastType = "none"
	AMQPBroadcast  BroadcastType = "amqp"
	RedisBroadcast BroadcastType = "redis"
)

func (t BroadcastType) String() string {
	return string(t)
}

func (t BroadcastType) IsValid() bool {
	switch t {
	case NoBroadcast, AMQPBroadcast, RedisBroadcast:
		return true
	default:
		return false
	}
}
