package streambalancer

import "context"

// InitOutcome : result of creating the consumer group
type InitOutcome int

const (
	Initialized InitOutcome = iota
	AlreadyExists
	UnknownError
)

func (o InitOutcome) String() string {
	switch o {
	case Initialized:
		return "initialized"
	case AlreadyExists:
		return "already exists"
	default:
		return "unknown error"
	}
}

// StreamStore : primitive operations on one stream and one consumer group.
// Every method must be safe to call concurrently from several processes.
type StreamStore interface {
	// ListConsumers returns the consumer identities registered in the group, in no particular order
	ListConsumers(ctx context.Context) ([]string, error)

	// ListActivePods returns the names of the pods registered under the pod key prefix
	ListActivePods(ctx context.Context) (PodSet, error)

	// ListPending returns at most maxCount pending entries and flags the snapshot when more exist
	ListPending(ctx context.Context, maxCount int64) (*PendingSnapshot, error)

	// DeleteConsumer removes the consumer from the group, deleting an absent consumer is not an error
	DeleteConsumer(ctx context.Context, consumer string) error

	// Claim transfers ownership of the entry to newOwner as long as nobody touched it since it was read.
	// Only one concurrent caller gets the record, the others get an empty slice.
	Claim(ctx context.Context, e PendingEntry, newOwner string) ([]Record, error)

	// Append adds a new message to the stream and returns its id
	Append(ctx context.Context, values map[string]interface{}) (string, error)

	// Acknowledge removes the record from the pending entries list, false if it was not pending
	Acknowledge(ctx context.Context, r Record) (bool, error)

	// InitializeGroup creates the group, AlreadyExists is returned with a nil error for an existing group
	InitializeGroup(ctx context.Context) (InitOutcome, error)
}
