package mesos

import (
	"github.com/pborman/uuid"
)

// FrameworkID identifies a framework registered with the master.
type FrameworkID string

// MasterID identifies a master instance.
type MasterID string

// OfferID identifies a resource offer. Offer IDs are never reused once the
// offer is accepted or declined.
type OfferID string

// AgentID identifies an agent advertising resources.
type AgentID string

// TaskID identifies a task launched on an agent.
type TaskID string

// ResourceType tags the shape of a resource value.
type ResourceType int

const (
	// ResourceScalar is a scalar-valued resource such as cpus or mem.
	ResourceScalar ResourceType = iota
	// ResourceRanges is a range-valued resource such as ports.
	ResourceRanges
	// ResourceSet is a set-valued resource.
	ResourceSet
)

// Resource is a named quantity advertised by an agent or requested by a
// task.
type Resource struct {
	Name   string
	Type   ResourceType
	Scalar float64
}

// NewScalarResource returns a scalar resource with the given name and
// amount.
func NewScalarResource(name string, value float64) Resource {
	return Resource{
		Name:   name,
		Type:   ResourceScalar,
		Scalar: value,
	}
}

// MasterInfo describes the master a framework registered with.
type MasterInfo struct {
	ID   MasterID
	Host string
	Port uint32
}

// Offer is a bundle of resources advertised by an agent via the master.
// An offer is immutable once received and valid until accepted in a launch
// or declined.
type Offer struct {
	ID          OfferID
	FrameworkID FrameworkID
	AgentID     AgentID
	Hostname    string
	ExecutorID  string
	Resources   []Resource
}

// HasResources reports whether the offer carries a resource for every
// name in names. Matching is name-set containment; quantitative
// arithmetic is left to the caller's matching strategy.
func (o *Offer) HasResources(names []string) bool {
	carried := make(map[string]bool, len(o.Resources))
	for _, r := range o.Resources {
		carried[r.Name] = true
	}
	for _, name := range names {
		if !carried[name] {
			return false
		}
	}
	return true
}

// CommandSpec describes a command-style task payload.
type CommandSpec struct {
	Value       string
	Arguments   []string
	Environment map[string]string
}

// ContainerSpec describes a container-style task payload.
type ContainerSpec struct {
	Image      string
	Arguments  []string
	Parameters map[string]string
}

// TaskDescriptor is the caller-owned description of a task to launch:
// a name, the resources it requires, and either a command or a container
// payload.
type TaskDescriptor struct {
	Name      string
	Resources []Resource
	Command   *CommandSpec
	Container *ContainerSpec
}

// ResourceNames returns the names of all resources the descriptor
// requests.
func (d *TaskDescriptor) ResourceNames() []string {
	names := make([]string, 0, len(d.Resources))
	for _, r := range d.Resources {
		names = append(names, r.Name)
	}
	return names
}

// TaskInfo is a launchable task: a descriptor paired with the offer that
// carries it.
type TaskInfo struct {
	Name      string
	TaskID    TaskID
	AgentID   AgentID
	Resources []Resource
	Command   *CommandSpec
	Container *ContainerSpec
}

// NewTaskInfo pairs a descriptor with the offer chosen to carry it,
// assigning a fresh task ID.
func NewTaskInfo(descriptor TaskDescriptor, offer *Offer) TaskInfo {
	return TaskInfo{
		Name:      descriptor.Name,
		TaskID:    TaskID(uuid.NewUUID().String()),
		AgentID:   offer.AgentID,
		Resources: descriptor.Resources,
		Command:   descriptor.Command,
		Container: descriptor.Container,
	}
}
