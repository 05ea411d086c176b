package status

//Status represents job status
type Status int

const (
	// Queued - job is saved and waits for the worker
	Queued Status = iota + 1
	// Processing - worker took the job
	Processing
	// Completed - final step, audio is ready
	Completed
	// Failed - final step, no audio
	Failed
)

var (
	statusName = map[Status]string{Queued: "queued", Processing: "processing",
		Completed: "completed", Failed: "failed"}
	nameStatus = map[string]Status{"queued": Queued, "processing": Processing,
		"completed": Completed, "failed": Failed}
	next = map[Status][]Status{Queued: {Processing}, Processing: {Completed, Failed}}
)

func (st Status) String() string {
	return statusName[st]
}

// From returns status obj from string
func From(st string) Status {
	return nameStatus[st]
}

// Final returns true if no transition is possible from the status
func (st Status) Final() bool {
	return st == Completed || st == Failed
}

// CanTransition checks if the job may move from one status to another.
// Only queued -> processing -> {completed, failed} is allowed
func CanTransition(from, to Status) bool {
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Previous returns the only status the job may move to st from, 0 if none
func (st Status) Previous() Status {
	for from, to := range next {
		for _, s := range to {
			if s == st {
				return from
			}
		}
	}
	return 0
}
