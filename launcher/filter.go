package launcher

import (
	"github.com/coxswain-io/coxswain/mesos"
)

// Assignment is a proposed mapping from offers to the descriptors they
// would carry.
type Assignment map[*mesos.Offer][]mesos.TaskDescriptor

// Filter is a user-supplied predicate over a proposed assignment. It
// returns true iff the assignment is acceptable. A nil filter accepts
// everything.
type Filter func(Assignment) bool

// DistinctHosts accepts assignments that place every task on a distinct
// agent.
func DistinctHosts() Filter {
	return func(proposed Assignment) bool {
		agents := make(map[mesos.AgentID]int)
		for offer, descriptors := range proposed {
			agents[offer.AgentID] += len(descriptors)
		}
		for _, count := range agents {
			if count > 1 {
				return false
			}
		}
		return true
	}
}

// OnHost accepts assignments whose offers all come from the given host.
func OnHost(hostname string) Filter {
	return func(proposed Assignment) bool {
		for offer := range proposed {
			if offer.Hostname != hostname {
				return false
			}
		}
		return true
	}
}

// MaxTasksPerOffer accepts assignments that pack at most k tasks into
// any single offer.
func MaxTasksPerOffer(k int) Filter {
	return func(proposed Assignment) bool {
		for _, descriptors := range proposed {
			if len(descriptors) > k {
				return false
			}
		}
		return true
	}
}
