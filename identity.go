package streambalancer

import "strings"

// IdentitySeparator separates the pod name from the consumer index in a consumer identity
const IdentitySeparator = "_"

// PodSet : names of the pods currently alive
type PodSet map[string]struct{}

func NewPodSet(pods ...string) PodSet {
	ps := make(PodSet, len(pods))
	for _, p := range pods {
		ps[p] = struct{}{}
	}
	return ps
}

func (ps PodSet) Contains(pod string) bool {
	_, ok := ps[pod]
	return ok
}

// PodName returns the pod part of a consumer identity <pod>_<index>, i.e. everything before the last
// separator. An identity without a separator is its own pod name, "" maps to "".
//
//	PodName("worker-7d9f_0")   == "worker-7d9f"
//	PodName("my_pod_3")        == "my_pod"
//	PodName("standalone")      == "standalone"
//	PodName("_1")              == ""
func PodName(identity string) string {
	idx := strings.LastIndex(identity, IdentitySeparator)
	if idx < 0 {
		return identity
	}
	return identity[:idx]
}

// Classify splits the identities into consumers whose pod is alive and consumers whose pod is gone.
// Input order is preserved in both outputs, which are never nil.
func Classify(identities []string, activePods PodSet) (active []string, inactive []string) {
	active = make([]string, 0, len(identities))
	inactive = make([]string, 0)
	for _, id := range identities {
		if activePods.Contains(PodName(id)) {
			active = append(active, id)
		} else {
			inactive = append(inactive, id)
		}
	}
	return active, inactive
}
