package launcher

import (
	log "github.com/sirupsen/logrus"

	"github.com/coxswain-io/coxswain/mesos"
)

// matcher keeps track of matched offers for one submission's descriptor
// set. Matching is name-set containment: an offer matches a descriptor
// iff it carries a resource for every name the descriptor requests.
// Assignment is greedy and one-offer-per-descriptor: each offer binds the
// first still-unbound descriptor it matches, in offer arrival order.
type matcher struct {
	descriptors []mesos.TaskDescriptor
	// bound maps descriptor index to the offer chosen to carry it.
	bound map[int]*mesos.Offer
}

func newMatcher(descriptors []mesos.TaskDescriptor) *matcher {
	return &matcher{
		descriptors: descriptors,
		bound:       make(map[int]*mesos.Offer),
	}
}

// tryMatch binds the offer to the first unbound descriptor it satisfies.
// Unmatched offers are untouched.
func (m *matcher) tryMatch(offer *mesos.Offer) bool {
	for i, descriptor := range m.descriptors {
		if _, taken := m.bound[i]; taken {
			continue
		}
		if !offer.HasResources(descriptor.ResourceNames()) {
			continue
		}
		m.bound[i] = offer
		log.WithFields(log.Fields{
			"offer_id": offer.ID,
			"task":     descriptor.Name,
		}).Debug("Offer matched descriptor")
		return true
	}
	return false
}

// isComplete returns whether every descriptor has a bound offer.
func (m *matcher) isComplete() bool {
	return len(m.bound) == len(m.descriptors)
}

// isUsed returns whether the offer is part of the current assignment.
func (m *matcher) isUsed(id mesos.OfferID) bool {
	for _, offer := range m.bound {
		if offer.ID == id {
			return true
		}
	}
	return false
}

// assignment returns the proposed offer-to-descriptors mapping.
func (m *matcher) assignment() Assignment {
	proposed := make(Assignment, len(m.bound))
	for i, offer := range m.bound {
		proposed[offer] = append(proposed[offer], m.descriptors[i])
	}
	return proposed
}

// offerIDs returns the distinct offer IDs of the assignment in
// descriptor order.
func (m *matcher) offerIDs() []mesos.OfferID {
	seen := make(map[mesos.OfferID]bool, len(m.bound))
	ids := make([]mesos.OfferID, 0, len(m.bound))
	for i := range m.descriptors {
		offer, ok := m.bound[i]
		if !ok || seen[offer.ID] {
			continue
		}
		seen[offer.ID] = true
		ids = append(ids, offer.ID)
	}
	return ids
}

// taskInfos pairs each descriptor with its bound offer, preserving
// descriptor order.
func (m *matcher) taskInfos() []mesos.TaskInfo {
	infos := make([]mesos.TaskInfo, 0, len(m.descriptors))
	for i, descriptor := range m.descriptors {
		infos = append(infos, mesos.NewTaskInfo(descriptor, m.bound[i]))
	}
	return infos
}
