package messages

import (
	amessages "github.com/airenas/async-api/pkg/messages"
)

const (
	st = "DOCREAD/"
	// Work queue name, jobs for the pipeline worker
	Work = st + "Work"
	// StatusChange queue name, events for status subscribers
	StatusChange = st + "StatusChange"
)

// JobMessage passes job ID through the queues.
// Worker reloads all other data from DB
type JobMessage struct {
	amessages.QueueMessage
}

// NewJobMessage creates message for the job
func NewJobMessage(id string) *JobMessage {
	return &JobMessage{QueueMessage: amessages.QueueMessage{ID: id}}
}
