package streambalancer

import (
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultMaxPending : number of pending entries fetched in a single pass when Config.MaxPending is not set
const DefaultMaxPending int64 = 10000

// Config : Config to initialize the balancer
type Config struct {
	// RedisOptions : This is same as proved by golang redis/v8 package
	RedisOptions *redis.Options

	// Stream : key of the redis stream to rebalance
	Stream string

	// Group : consumer group of the stream
	Group string

	// PodKeyPrefix : active pods are registered as keys <PodKeyPrefix>:<podName>
	PodKeyPrefix string

	// NameSpace : lock and report keys in redis are prefixed by __NameSpace
	NameSpace string

	// MaxPending : upper bound of pending entries read in one pass, defaults to DefaultMaxPending
	MaxPending int64

	// LockTTL : when > 0 passes are serialized across processes with a lock held for at most LockTTL
	LockTTL time.Duration

	// Debug : boolean flag to enabled debug logs in the balancer
	Debug bool
}

func (c *Config) validate() error {
	if c.Stream == "" {
		return ErrorEmptyStreamName
	}
	if c.Group == "" {
		return ErrorEmptyGroupName
	}
	if c.PodKeyPrefix == "" {
		return ErrorEmptyPodKeyPrefix
	}
	if c.MaxPending < 0 {
		return ErrorInvalidMaxPending
	}
	return nil
}

func (c *Config) maxPending() int64 {
	if c.MaxPending == 0 {
		return DefaultMaxPending
	}
	return c.MaxPending
}
