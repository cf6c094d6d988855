package backend

import (
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/config"
)

// NewSessionID returns a fresh identifier for one running session. It tags
// outgoing invalidations and names the session's queue or consumer group.
func NewSessionID() string {
	return uuid.NewString()
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config, session string) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	rpcType := RPCType(appConfig.RPCBackend)
	if !rpcType.IsValid() {
		return Config{}, fmt.Errorf("invalid RPC backend in config: %s", appConfig.RPCBackend)
	}
	busType := BroadcastType(appConfig.BroadcastBackend)
	if !busType.IsValid() {
		return Config{}, fmt.Errorf("invalid broadcast backend in config: %s", appConfig.BroadcastBackend)
	}

	return Config{
		RPC:       rpcType,
		Broadcast: busType,
		Session:   session,

		RPCURL:         appConfig.RPCURL,
		RPCTimeout:     appConfig.RPCTimeout,
		RPCRateLimit:   appConfig.RPCRateLimit,
		MemorySeedFile: appConfig.MemorySeedFile,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
		RedisStream:   appConfig.RedisStream,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.RPC.IsValid() {
		return fmt.Errorf("invalid RPC backend: %s", c.RPC)
	}
	if !c.Broadcast.IsValid() {
		return fmt.Errorf("invalid broadcast backend: %s", c.Broadcast)
	}

	if c.RPC == HTTPRPC && c.RPCURL == "" {
		return fmt.Errorf("RPC URL is required for http backend")
	}

	switch c.Broadcast {
	case AMQPBroadcast:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP URL is required for amqp broadcast")
		}
		if c.AMQPExchange == "" {
			return fmt.Errorf("AMQP exchange is required for amqp broadcast")
		}
	case RedisBroadcast:
		if c.RedisAddr == "" {
			return fmt.Errorf("Redis address is required for redis broadcast")
		}
		if c.RedisStream == "" {
			return fmt.Errorf("Redis stream is required for redis broadcast")
		}
	case NoBroadcast:
		// Nothing to connect to
	}

	if c.Broadcast != NoBroadcast && c.Session == "" {
		return fmt.Errorf("session id is required when broadcasting")
	}

	return nil
}

// QueueName returns the AMQP queue for this session. A configured queue
// name is used as a prefix so sessions never share a queue.
func (c Config) QueueName() string {
	prefix := c.AMQPQueue
	if prefix == "" {
		prefix = "fintrack.session"
	}
	return prefix + "." + c.Session
}
