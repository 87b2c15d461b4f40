package streambalancer

// Origin : why an entry was reclaimed
type Origin string

const (
	OriginInactive Origin = "inactive"
	OriginActive   Origin = "active"
)

// Stage : the store operation a reclaim failed in
type Stage string

const (
	StageClaim  Stage = "claim"
	StageAppend Stage = "append"
	StageAck    Stage = "ack"
)

type ReclaimStats struct {
	FromInactiveConsumers int `json:"fromInactiveConsumers"`
	FromActiveConsumers   int `json:"fromActiveConsumers"`
}

// ReclaimFailure : a pending entry which could not be moved back to the stream
type ReclaimFailure struct {
	EntryID  string `json:"entryId"`
	Consumer string `json:"consumer"`
	Origin   Origin `json:"origin"`
	Stage    Stage  `json:"stage"`
	Error    string `json:"error"`
}

// Result : summary of a rebalance pass
type Result struct {
	ActiveConsumers   []string     `json:"activeConsumers"`
	InactiveConsumers []string     `json:"inactiveConsumers"`
	ReclaimStats      ReclaimStats `json:"reclaimStats"`

	// DeletedConsumers : inactive consumers removed from the group
	DeletedConsumers []string `json:"deletedConsumers"`

	// RetainedConsumers : inactive consumers kept because some of their entries could not be reclaimed
	RetainedConsumers []string `json:"retainedConsumers"`

	Failures []ReclaimFailure `json:"failures"`

	// Truncated : the pending entries list was larger than the configured maximum
	Truncated bool `json:"truncated"`
}

func newResult(active, inactive []string) *Result {
	return &Result{
		ActiveConsumers:   active,
		InactiveConsumers: inactive,
		DeletedConsumers:  []string{},
		RetainedConsumers: []string{},
		Failures:          []ReclaimFailure{},
	}
}

// Reclaimed returns the number of entries moved back to the stream
func (r *Result) Reclaimed() int {
	return r.ReclaimStats.FromInactiveConsumers + r.ReclaimStats.FromActiveConsumers
}

func (r *Result) addFailure(e PendingEntry, origin Origin, stage Stage, err error) {
	r.Failures = append(r.Failures, ReclaimFailure{
		EntryID:  e.ID,
		Consumer: e.Consumer,
		Origin:   origin,
		Stage:    stage,
		Error:    err.Error(),
	})
}

func (r *Result) count(origin Origin, n int) {
	if origin == OriginInactive {
		r.ReclaimStats.FromInactiveConsumers += n
	} else {
		r.ReclaimStats.FromActiveConsumers += n
	}
}
