package api

import (
	"github.com/airenas/docread/internal/pkg/persistence"
	"github.com/airenas/docread/internal/pkg/utils"
)

const (
	// PrmFile upload form file param
	PrmFile = "file"
)

// Job is the status of one conversion job
type Job struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Filename    string  `json:"filename,omitempty"`
	AudioFile   *string `json:"audioFile"`
	Progress    int     `json:"progress"`
	TotalChunks int     `json:"totalChunks"`
	Percent     int     `json:"percent"`
	Error       string  `json:"error,omitempty"`
}

// UploadResult is returned after a successful upload
type UploadResult struct {
	ID string `json:"id"`
}

// UnknownJob is returned for an unknown ID
type UnknownJob struct {
	Status string `json:"status"`
}

// FromJob makes the response from the job record
func FromJob(j *persistence.Job) *Job {
	res := &Job{ID: j.ID, Status: j.Status, Filename: j.Filename, Progress: j.Progress,
		TotalChunks: j.TotalChunks, Percent: j.Percent(), Error: utils.FromSQLStr(j.Error)}
	if j.AudioFile.Valid {
		res.AudioFile = &j.AudioFile.String
	}
	return res
}
