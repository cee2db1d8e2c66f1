package mesos

// TaskState is the lifecycle state of a launched task as reported by the
// master. Transitions flow only from non-terminal to terminal states.
type TaskState int

const (
	// TaskStaging means the master has accepted the task but the agent
	// has not yet started it.
	TaskStaging TaskState = iota
	// TaskStarting means the executor is launching the task.
	TaskStarting
	// TaskRunning means the task is running.
	TaskRunning
	// TaskFinished means the task terminated successfully.
	TaskFinished
	// TaskFailed means the task terminated with an error.
	TaskFailed
	// TaskKilled means the task was killed by the framework.
	TaskKilled
	// TaskLost means the task was lost, typically with its agent.
	TaskLost
	// TaskError means the task description was invalid.
	TaskError
)

var stateNames = map[TaskState]string{
	TaskStaging:  "TASK_STAGING",
	TaskStarting: "TASK_STARTING",
	TaskRunning:  "TASK_RUNNING",
	TaskFinished: "TASK_FINISHED",
	TaskFailed:   "TASK_FAILED",
	TaskKilled:   "TASK_KILLED",
	TaskLost:     "TASK_LOST",
	TaskError:    "TASK_ERROR",
}

func (s TaskState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "TASK_UNKNOWN"
}

// IsTerminal reports whether no further transitions occur from this
// state.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskFinished, TaskFailed, TaskKilled, TaskLost, TaskError:
		return true
	}
	return false
}
