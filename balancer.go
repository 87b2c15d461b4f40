package streambalancer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hextechpal/streambalancer/internal/locker"
	"github.com/hextechpal/streambalancer/internal/report"
	"github.com/hextechpal/streambalancer/internal/utils"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const randomMessageLen = 10

// Observer : notified after every pass, err is ErrRebalanceInProgress when the pass was skipped
type Observer interface {
	ObservePass(res *Result, err error, elapsed time.Duration)
}

type reportStore interface {
	Save(ctx context.Context, v any) error
	Load(ctx context.Context, v any) error
}

type nopObserver struct{}

func (nopObserver) ObservePass(*Result, error, time.Duration) {}

// Report : the last pass persisted in redis
type Report struct {
	Result     *Result   `json:"result"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
}

// Balancer : Struct exposed by the library to rebalance and initialize one stream consumer group
type Balancer struct {
	rdb        *redis.Client
	store      StreamStore
	rebalancer *Rebalancer
	locker     locker.Locker
	reports    reportStore
	observer   Observer
	logger     *zerolog.Logger

	ns       string
	stream   string
	group    string
	lockTTL  time.Duration
	instance string
}

type Option func(*Balancer)

// WithPicker replaces the uniform random choice of the consumer taking over an entry, nil keeps it
func WithPicker(p Picker) Option {
	return func(b *Balancer) {
		if p != nil {
			b.rebalancer.pick = p
		}
	}
}

func WithObserver(o Observer) Option {
	return func(b *Balancer) {
		b.observer = o
	}
}

func WithLogger(l *zerolog.Logger) Option {
	return func(b *Balancer) {
		b.logger = l
		b.rebalancer.logger = l
	}
}

func NewBalancer(c *Config, opts ...Option) (*Balancer, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	rdb := redis.NewClient(c.RedisOptions)
	err := rdb.Ping(context.TODO()).Err()
	if err != nil {
		return nil, err
	}
	return newBalancer(rdb, c, opts...), nil
}

func newBalancer(rdb *redis.Client, c *Config, opts ...Option) *Balancer {
	logger := setupLogger(c.Debug, c.NameSpace)
	nLogger := logger.With().Str("stream", c.Stream).Str("group", c.Group).Logger()
	store := NewRedisStreamStore(rdb, c.Stream, c.Group, c.PodKeyPrefix)
	b := &Balancer{
		rdb:   rdb,
		store: store,
		rebalancer: NewRebalancer(&NewRebalancerArgs{
			Store:      store,
			MaxPending: c.maxPending(),
			Logger:     &nLogger,
		}),
		reports:  report.NewStore(rdb, reportKey(c.NameSpace, c.Stream, c.Group), 0),
		observer: nopObserver{},
		logger:   &nLogger,
		ns:       c.NameSpace,
		stream:   c.Stream,
		group:    c.Group,
		lockTTL:  c.LockTTL,
		instance: utils.NewEventID(),
	}
	if c.LockTTL > 0 {
		b.locker = locker.NewRedisLocker(rdb)
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func setupLogger(debug bool, space string) *zerolog.Logger {
	logLevel := zerolog.InfoLevel
	if debug {
		logLevel = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	logger := zerolog.
		New(os.Stderr).
		With().Timestamp().
		Str("ns", space).
		Logger().
		Output(zerolog.ConsoleWriter{Out: os.Stderr})

	return &logger
}

// Rebalance : runs one rebalance pass and stores its result as the last report
func (b *Balancer) Rebalance(ctx context.Context) (*Result, error) {
	if b.locker != nil {
		lock, err := b.locker.TryAcquire(ctx, adminKey(b.ns, b.stream, b.group), b.lockTTL, b.instance)
		if err == locker.ErrNotObtained {
			b.logger.Info().Msg("Rebalance skipped, lock held by another process")
			b.observer.ObservePass(nil, ErrRebalanceInProgress, 0)
			return nil, ErrRebalanceInProgress
		}
		if err != nil {
			return nil, fmt.Errorf("acquire rebalance lock: %w", err)
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				b.logger.Debug().Err(err).Msgf("Releasing lock with key %s", lock.Key())
			}
		}()
	}

	start := time.Now()
	res, err := b.rebalancer.Rebalance(ctx)
	elapsed := time.Since(start)
	b.observer.ObservePass(res, err, elapsed)
	if err != nil {
		b.logger.Error().Err(err).Msg("Rebalance aborted")
		return nil, err
	}

	err = b.reports.Save(ctx, &Report{Result: res, StartedAt: start, DurationMs: elapsed.Milliseconds()})
	if err != nil {
		b.logger.Warn().Err(err).Msg("Error happened while saving rebalance report")
	}
	return res, nil
}

// LastReport : the report of the last successful pass, ErrNoReport if there was none
func (b *Balancer) LastReport(ctx context.Context) (*Report, error) {
	var r Report
	err := b.reports.Load(ctx, &r)
	if errors.Is(err, report.ErrNotFound) {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InitializeGroup : creates the consumer group (and the stream), an existing group is reported as AlreadyExists
func (b *Balancer) InitializeGroup(ctx context.Context) (InitOutcome, error) {
	outcome, err := b.store.InitializeGroup(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Error happened while creating consumer group")
		return outcome, err
	}
	b.logger.Info().Str("outcome", outcome.String()).Msg("Consumer group initialization")
	return outcome, nil
}

// Publish : adds a test event to the stream, a random message is used when message is empty
func (b *Balancer) Publish(ctx context.Context, message string) (string, error) {
	if message == "" {
		message = randomMessage(randomMessageLen)
	}
	eventID := utils.NewEventID()
	event, err := structpb.NewStruct(map[string]interface{}{
		"id":          eventID,
		"message":     message,
		"publishedAt": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", err
	}
	data, err := protojson.Marshal(event)
	if err != nil {
		return "", err
	}
	id, err := b.store.Append(ctx, map[string]interface{}{
		"eventId": eventID,
		"data":    string(data),
	})
	if err != nil {
		b.logger.Error().Msgf("Error happened while sending message %v", err)
		return "", err
	}
	b.logger.Debug().Msgf("Sent message with Id %v", id)
	return id, nil
}

// Logger returns the logger of the balancer, scoped to its namespace, stream and group
func (b *Balancer) Logger() *zerolog.Logger {
	return b.logger
}

func (b *Balancer) Close() error {
	return b.rdb.Close()
}

func adminKey(ns, stream, group string) string {
	return fmt.Sprintf("__%s:__%s_%s:admin", ns, stream, group)
}

func reportKey(ns, stream, group string) string {
	return fmt.Sprintf("__%s:__%s_%s:report", ns, stream, group)
}

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomMessage(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}
	return string(b)
}
