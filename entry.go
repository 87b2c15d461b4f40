package streambalancer

import (
	"strconv"
	"strings"
	"time"
)

// PendingEntry : a delivered but not yet acknowledged entry of the group
type PendingEntry struct {
	ID         string
	Consumer   string
	Idle       time.Duration
	RetryCount int64
}

// PendingSnapshot : one read of the pending entries list
type PendingSnapshot struct {
	Entries []PendingEntry

	// Total : number of pending entries of the group, can be larger than len(Entries)
	Total int64

	// Truncated : the group holds entries which were not returned
	Truncated bool
}

// Record : a stream message returned by a claim
type Record struct {
	ID     string
	Values map[string]interface{}
}

// compareIDs orders stream ids <ms>-<seq> numerically. Ids that do not parse are compared as strings.
func compareIDs(a, b string) int {
	ams, aseq, aok := parseID(a)
	bms, bseq, bok := parseID(b)
	if !aok || !bok {
		return strings.Compare(a, b)
	}
	switch {
	case ams < bms:
		return -1
	case ams > bms:
		return 1
	case aseq < bseq:
		return -1
	case aseq > bseq:
		return 1
	}
	return 0
}

func parseID(id string) (uint64, uint64, bool) {
	msPart, seqPart, found := strings.Cut(id, "-")
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if !found {
		return ms, 0, true
	}
	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return ms, seq, true
}
