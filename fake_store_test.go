package streambalancer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// deliveredIdle : idle time of an entry nobody touched since its delivery
const deliveredIdle = time.Second

// fakeStore : in memory stream + group honouring the StreamStore contract
type fakeStore struct {
	mu sync.Mutex

	pods      PodSet
	consumers []string
	messages  map[string]map[string]interface{}
	pending   map[string]string
	idle      map[string]time.Duration
	groupMade bool
	truncated bool
	nextSeq   int

	// errs : failures injected per operation, keyed "<op>" or "<op>:<id|consumer>"
	errs map[string]error
	// stolen : entries another process claims right before us
	stolen map[string]bool
	// ackedElsewhere : entries another process acknowledges right before us
	ackedElsewhere map[string]bool

	ops          []string
	claimOwners  map[string]string
	pendingReads int
}

func newFakeStore(pods []string, consumers []string) *fakeStore {
	return &fakeStore{
		pods:        NewPodSet(pods...),
		consumers:   consumers,
		messages:    make(map[string]map[string]interface{}),
		pending:        make(map[string]string),
		idle:           make(map[string]time.Duration),
		errs:           make(map[string]error),
		stolen:         make(map[string]bool),
		ackedElsewhere: make(map[string]bool),
		claimOwners:    make(map[string]string),
	}
}

// deliver adds a message and makes it pending on owner
func (f *fakeStore) deliver(id, owner string) *fakeStore {
	f.messages[id] = map[string]interface{}{"payload": "msg " + id}
	f.pending[id] = owner
	f.idle[id] = deliveredIdle
	return f
}

func (f *fakeStore) fail(key string, err error) *fakeStore {
	f.errs[key] = err
	return f
}

func (f *fakeStore) record(op string) {
	f.ops = append(f.ops, op)
}

func (f *fakeStore) ListConsumers(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs["consumers"]; err != nil {
		return nil, err
	}
	out := make([]string, len(f.consumers))
	copy(out, f.consumers)
	return out, nil
}

func (f *fakeStore) ListActivePods(_ context.Context) (PodSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs["pods"]; err != nil {
		return nil, err
	}
	return f.pods, nil
}

func (f *fakeStore) ListPending(_ context.Context, maxCount int64) (*PendingSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingReads++
	if err := f.errs["pending"]; err != nil {
		return nil, err
	}
	entries := make([]PendingEntry, 0, len(f.pending))
	for id, owner := range f.pending {
		entries = append(entries, PendingEntry{ID: id, Consumer: owner, Idle: f.idle[id]})
	}
	sort.Slice(entries, func(i, j int) bool {
		return compareIDs(entries[i].ID, entries[j].ID) < 0
	})
	total := int64(len(entries))
	if int64(len(entries)) > maxCount {
		entries = entries[:maxCount]
	}
	return &PendingSnapshot{
		Entries:   entries,
		Total:     total,
		Truncated: f.truncated || total > int64(len(entries)),
	}, nil
}

func (f *fakeStore) DeleteConsumer(_ context.Context, consumer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs["delete:"+consumer]; err != nil {
		return err
	}
	f.record("delete:" + consumer)
	kept := f.consumers[:0]
	for _, c := range f.consumers {
		if c != consumer {
			kept = append(kept, c)
		}
	}
	f.consumers = kept
	for id, owner := range f.pending {
		if owner == consumer {
			delete(f.pending, id)
		}
	}
	return nil
}

func (f *fakeStore) Claim(_ context.Context, e PendingEntry, newOwner string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := e.ID
	if err := f.errs["claim:"+id]; err != nil {
		return nil, err
	}
	f.record("claim:" + id)
	if f.stolen[id] {
		return []Record{}, nil
	}
	if _, ok := f.pending[id]; !ok {
		return []Record{}, nil
	}
	if f.idle[id] < e.Idle {
		return []Record{}, nil
	}
	f.pending[id] = newOwner
	f.idle[id] = 0
	f.claimOwners[id] = newOwner
	return []Record{{ID: id, Values: f.messages[id]}}, nil
}

func (f *fakeStore) Append(_ context.Context, values map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[fmt.Sprintf("append:%v", values["payload"])]; err != nil {
		return "", err
	}
	f.nextSeq++
	id := fmt.Sprintf("9999999999999-%d", f.nextSeq)
	f.messages[id] = values
	f.record(fmt.Sprintf("append:%v", values["payload"]))
	return id, nil
}

func (f *fakeStore) Acknowledge(_ context.Context, r Record) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs["ack:"+r.ID]; err != nil {
		return false, err
	}
	f.record("ack:" + r.ID)
	if f.ackedElsewhere[r.ID] {
		delete(f.pending, r.ID)
		return false, nil
	}
	if _, ok := f.pending[r.ID]; !ok {
		return false, nil
	}
	delete(f.pending, r.ID)
	return true, nil
}

func (f *fakeStore) InitializeGroup(_ context.Context) (InitOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs["init"]; err != nil {
		return UnknownError, err
	}
	if f.groupMade {
		return AlreadyExists, nil
	}
	f.groupMade = true
	return Initialized, nil
}

// pendingOf returns the ids still pending on consumer, oldest first
func (f *fakeStore) pendingOf(consumer string) []string {
	ids := make([]string, 0)
	for id, owner := range f.pending {
		if owner == consumer {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return compareIDs(ids[i], ids[j]) < 0
	})
	return ids
}

// copiesOf counts the messages appended with the payload of id
func (f *fakeStore) copiesOf(id string) int {
	n := 0
	for mid, v := range f.messages {
		if mid != id && v["payload"] == "msg "+id {
			n++
		}
	}
	return n
}

func (f *fakeStore) opIndex(op string) int {
	for i, o := range f.ops {
		if o == op {
			return i
		}
	}
	return -1
}
