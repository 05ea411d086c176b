package persistence

import (
	"database/sql"
	"errors"
	"time"
)

type (
	//Job table
	Job struct {
		ID          string
		Filename    string
		StoredFile  string
		Status      string
		Progress    int
		TotalChunks int
		AudioFile   sql.NullString
		Error       sql.NullString
		Created     time.Time
		Updated     time.Time
	}
)

// Percent returns floor(progress/total*100) or 0 if total is unknown
func (j *Job) Percent() int {
	if j.TotalChunks <= 0 {
		return 0
	}
	return j.Progress * 100 / j.TotalChunks
}

// ErrBusy is returned when the store refuses an operation while a job is being processed
var ErrBusy = errors.New("job is processing")
