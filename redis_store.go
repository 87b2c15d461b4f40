package streambalancer

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
)

const podScanCount = 100

type redisStreamStore struct {
	rdb redis.Cmdable

	stream       string
	group        string
	podKeyPrefix string
}

// NewRedisStreamStore returns a StreamStore backed by redis streams commands
func NewRedisStreamStore(rdb redis.Cmdable, stream, group, podKeyPrefix string) StreamStore {
	return &redisStreamStore{rdb: rdb, stream: stream, group: group, podKeyPrefix: podKeyPrefix}
}

func (r *redisStreamStore) ListConsumers(ctx context.Context) ([]string, error) {
	consumers, err := r.rdb.XInfoConsumers(ctx, r.stream, r.group).Result()
	if err == redis.Nil {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list consumers of %s/%s: %w", r.stream, r.group, err)
	}
	names := make([]string, len(consumers))
	for i, c := range consumers {
		names[i] = c.Name
	}
	return names, nil
}

func (r *redisStreamStore) ListActivePods(ctx context.Context) (PodSet, error) {
	pods := NewPodSet()
	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, r.podKeyPrefix+":*", podScanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("scan pod keys %s: %w", r.podKeyPrefix, err)
		}
		for _, k := range keys {
			pods[k[strings.LastIndex(k, ":")+1:]] = struct{}{}
		}
		if next == 0 {
			return pods, nil
		}
		cursor = next
	}
}

func (r *redisStreamStore) ListPending(ctx context.Context, maxCount int64) (*PendingSnapshot, error) {
	pending, err := r.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: r.stream,
		Group:  r.group,
		Start:  "-",
		End:    "+",
		Count:  maxCount,
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("list pending of %s/%s: %w", r.stream, r.group, err)
	}

	snapshot := &PendingSnapshot{
		Entries: make([]PendingEntry, len(pending)),
		Total:   int64(len(pending)),
	}
	for i, xp := range pending {
		snapshot.Entries[i] = PendingEntry{
			ID:         xp.ID,
			Consumer:   xp.Consumer,
			Idle:       xp.Idle,
			RetryCount: xp.RetryCount,
		}
	}

	if int64(len(pending)) < maxCount {
		return snapshot, nil
	}

	// A full page may hide more entries, the summary tells the real size
	summary, err := r.rdb.XPending(ctx, r.stream, r.group).Result()
	if err != nil {
		return nil, fmt.Errorf("pending summary of %s/%s: %w", r.stream, r.group, err)
	}
	snapshot.Total = summary.Count
	snapshot.Truncated = summary.Count > int64(len(pending))
	return snapshot, nil
}

func (r *redisStreamStore) DeleteConsumer(ctx context.Context, consumer string) error {
	err := r.rdb.XGroupDelConsumer(ctx, r.stream, r.group, consumer).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("delete consumer %s: %w", consumer, err)
	}
	return nil
}

func (r *redisStreamStore) Claim(ctx context.Context, e PendingEntry, newOwner string) ([]Record, error) {
	// A successful claim resets the idle time, a racer asking for the idle time it read gets nothing
	msgs, err := r.rdb.XClaim(ctx, &redis.XClaimArgs{
		Stream:   r.stream,
		Group:    r.group,
		Consumer: newOwner,
		MinIdle:  e.Idle,
		Messages: []string{e.ID},
	}).Result()
	if err == redis.Nil {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim %s for %s: %w", e.ID, newOwner, err)
	}
	records := make([]Record, len(msgs))
	for i, m := range msgs {
		records[i] = Record{ID: m.ID, Values: m.Values}
	}
	return records, nil
}

func (r *redisStreamStore) Append(ctx context.Context, values map[string]interface{}) (string, error) {
	id, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", r.stream, err)
	}
	return id, nil
}

func (r *redisStreamStore) Acknowledge(ctx context.Context, rec Record) (bool, error) {
	n, err := r.rdb.XAck(ctx, r.stream, r.group, rec.ID).Result()
	if err != nil {
		return false, fmt.Errorf("ack %s: %w", rec.ID, err)
	}
	return n == 1, nil
}

func (r *redisStreamStore) InitializeGroup(ctx context.Context) (InitOutcome, error) {
	err := r.rdb.XGroupCreateMkStream(ctx, r.stream, r.group, "$").Err()
	if err == nil {
		return Initialized, nil
	}
	if isBusyGroup(err) {
		return AlreadyExists, nil
	}
	return UnknownError, fmt.Errorf("create group %s/%s: %w", r.stream, r.group, err)
}

func isBusyGroup(err error) bool {
	return strings.HasPrefix(err.Error(), "BUSYGROUP")
}
