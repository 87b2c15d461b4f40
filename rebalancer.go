package streambalancer

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
)

// Rebalancer moves pending entries of dead and lagging consumers back to the stream
type Rebalancer struct {
	store      StreamStore
	pick       Picker
	maxPending int64

	logger *zerolog.Logger
}

type NewRebalancerArgs struct {
	Store StreamStore

	// Picker : defaults to RandomPicker
	Picker Picker

	// MaxPending : defaults to DefaultMaxPending
	MaxPending int64

	Logger *zerolog.Logger
}

func NewRebalancer(args *NewRebalancerArgs) *Rebalancer {
	rb := &Rebalancer{
		store:      args.Store,
		pick:       args.Picker,
		maxPending: args.MaxPending,
		logger:     args.Logger,
	}
	if rb.pick == nil {
		rb.pick = RandomPicker
	}
	if rb.maxPending <= 0 {
		rb.maxPending = DefaultMaxPending
	}
	if rb.logger == nil {
		nop := zerolog.Nop()
		rb.logger = &nop
	}
	return rb
}

// Rebalance runs a single pass over one snapshot of the pending entries list.
//
// Errors while reading the membership or the pending list abort the pass before anything is changed.
// Failures on individual entries are collected in Result.Failures and the pass carries on.
func (rb *Rebalancer) Rebalance(ctx context.Context) (*Result, error) {
	pods, err := rb.store.ListActivePods(ctx)
	if err != nil {
		return nil, err
	}
	consumers, err := rb.store.ListConsumers(ctx)
	if err != nil {
		return nil, err
	}

	active, inactive := Classify(consumers, pods)
	res := newResult(active, inactive)
	rb.logger.Debug().Msgf("Classified consumers, active %v, inactive %v", active, inactive)

	if len(active) == 0 {
		rb.logger.Warn().Int("inactive", len(inactive)).Msg("No active consumers, nothing can take over pending entries")
		return res, nil
	}

	snapshot, err := rb.store.ListPending(ctx, rb.maxPending)
	if err != nil {
		return nil, err
	}
	if snapshot.Truncated {
		res.Truncated = true
		rb.logger.Warn().Int64("total", snapshot.Total).Int("read", len(snapshot.Entries)).
			Msg("Pending entries list truncated, inactive consumers will not be deleted in this pass")
	}

	byOwner := groupByOwner(snapshot.Entries)

	for _, c := range inactive {
		complete := true
		for _, e := range byOwner[c] {
			if !rb.reclaim(ctx, e, active, OriginInactive, res) {
				complete = false
			}
		}
		if !complete || snapshot.Truncated {
			res.RetainedConsumers = append(res.RetainedConsumers, c)
			continue
		}
		if err := rb.store.DeleteConsumer(ctx, c); err != nil {
			rb.logger.Error().Err(err).Str("consumer", c).Msg("Error happened while deleting consumer")
			res.RetainedConsumers = append(res.RetainedConsumers, c)
			continue
		}
		res.DeletedConsumers = append(res.DeletedConsumers, c)
	}

	for _, c := range active {
		for _, e := range excessEntries(byOwner[c]) {
			rb.reclaim(ctx, e, active, OriginActive, res)
		}
	}

	rb.logger.Info().
		Int("fromInactive", res.ReclaimStats.FromInactiveConsumers).
		Int("fromActive", res.ReclaimStats.FromActiveConsumers).
		Int("deleted", len(res.DeletedConsumers)).
		Int("failures", len(res.Failures)).
		Msg("Rebalance completed")
	return res, nil
}

// reclaim claims the entry for a substitute, re-adds its payload and only then acknowledges the original.
// It returns false when the entry may still be pending on its old owner.
func (rb *Rebalancer) reclaim(ctx context.Context, e PendingEntry, active []string, origin Origin, res *Result) bool {
	owner := rb.pick(active)
	records, err := rb.store.Claim(ctx, e, owner)
	if err != nil {
		rb.logger.Error().Err(err).Str("id", e.ID).Str("consumer", e.Consumer).Msg("Error happened while claiming entry")
		res.addFailure(e, origin, StageClaim, err)
		return false
	}
	if len(records) == 0 {
		rb.logger.Debug().Str("id", e.ID).Msg("Entry already claimed by someone else")
		return true
	}

	ok := true
	for _, rec := range records {
		if rec.ID != e.ID {
			rb.logger.Warn().Str("id", e.ID).Str("got", rec.ID).Msg("Claim returned an unexpected record, skipping")
			continue
		}
		newID, err := rb.store.Append(ctx, rec.Values)
		if err != nil {
			rb.logger.Error().Err(err).Str("id", e.ID).Msg("Error happened while re-adding entry")
			res.addFailure(e, origin, StageAppend, err)
			ok = false
			continue
		}
		acked, err := rb.store.Acknowledge(ctx, rec)
		if err != nil {
			rb.logger.Error().Err(err).Str("id", e.ID).Str("newId", newID).Msg("Error happened while acknowledging entry")
			res.addFailure(e, origin, StageAck, err)
			ok = false
			continue
		}
		if !acked {
			rb.logger.Warn().Str("id", e.ID).Str("newId", newID).Msg("Entry was acknowledged concurrently, not counted")
			continue
		}
		rb.logger.Debug().Str("id", e.ID).Str("newId", newID).Str("from", e.Consumer).Msg("Entry reclaimed")
		res.count(origin, 1)
	}
	return ok
}

func groupByOwner(entries []PendingEntry) map[string][]PendingEntry {
	byOwner := make(map[string][]PendingEntry)
	for _, e := range entries {
		byOwner[e.Consumer] = append(byOwner[e.Consumer], e)
	}
	return byOwner
}

// excessEntries returns every entry but the newest one
func excessEntries(entries []PendingEntry) []PendingEntry {
	if len(entries) < 2 {
		return nil
	}
	sorted := make([]PendingEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return compareIDs(sorted[i].ID, sorted[j].ID) > 0
	})
	return sorted[1:]
}
