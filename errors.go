package streambalancer

import (
	"errors"
	"fmt"
)

var ErrorEmptyStreamName = fmt.Errorf("stream name cannot be empty")
var ErrorEmptyGroupName = fmt.Errorf("group cannot be empty")
var ErrorEmptyPodKeyPrefix = fmt.Errorf("pod key prefix cannot be empty")
var ErrorInvalidMaxPending = fmt.Errorf("max pending cannot be less than 0")

// ErrRebalanceInProgress is returned when another process holds the rebalance lock
var ErrRebalanceInProgress = errors.New("rebalance already in progress")

// ErrNoReport is returned by LastReport when no pass has been recorded yet
var ErrNoReport = errors.New("no rebalance report recorded")
