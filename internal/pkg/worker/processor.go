package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/airenas/docread/internal/pkg/audio"
	"github.com/airenas/docread/internal/pkg/chunker"
	"github.com/airenas/docread/internal/pkg/extract"
	"github.com/airenas/docread/internal/pkg/filer"
	"github.com/airenas/docread/internal/pkg/messages"
	"github.com/airenas/docread/internal/pkg/persistence"
	"github.com/airenas/docread/internal/pkg/status"
	"github.com/airenas/go-app/pkg/goapp"
)

const (
	announcementPause = 500 * time.Millisecond
	contentPause      = 300 * time.Millisecond
	finishTimeout     = 10 * time.Second
)

// ErrNoAudio is recorded when no chunk produced audio
var ErrNoAudio = errors.New("no audio generated")

// progressTracker counts synthesized chunks of one job and persists the count
type progressTracker struct {
	jobID string
	count int
	db    DB
	send  func(ctx context.Context, id string)
}

func (p *progressTracker) inc(ctx context.Context) error {
	p.count++
	if err := p.db.SetProgress(ctx, p.jobID, p.count); err != nil {
		return fmt.Errorf("can't save progress: %w", err)
	}
	p.send(ctx, p.jobID)
	return nil
}

func handleJob(ctx context.Context, m *messages.JobMessage, data *ServiceData) error {
	id := m.ID
	goapp.Log.Info().Str("ID", id).Msg("handling job")
	job, err := data.DB.LoadJob(ctx, id)
	if err != nil {
		return fmt.Errorf("can't load job: %w", err)
	}
	if job == nil {
		goapp.Log.Warn().Str("ID", id).Msg("no job, skip")
		return nil
	}
	if st := status.From(job.Status); st != status.Queued {
		goapp.Log.Warn().Str("ID", id).Str("status", job.Status).Msg("job is not queued, skip")
		return nil
	}
	ok, err := data.DB.MarkProcessing(ctx, id)
	if err != nil {
		return fmt.Errorf("can't mark processing: %w", err)
	}
	if !ok {
		goapp.Log.Warn().Str("ID", id).Msg("job taken by someone else, skip")
		return nil
	}
	sendStatus(ctx, data, id)
	totalMetrics.WithLabelValues(status.Processing.String()).Inc()
	start := time.Now()

	audioFile, err := process(ctx, job, data)

	fCtx, cf := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cf()
	if err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Msg("job failed")
		totalMetrics.WithLabelValues(status.Failed.String()).Inc()
		if err := data.DB.MarkFailed(fCtx, id, err.Error()); err != nil {
			return fmt.Errorf("can't mark failed: %w", err)
		}
	} else {
		if err := data.DB.MarkCompleted(fCtx, id, audioFile); err != nil {
			return fmt.Errorf("can't mark completed: %w", err)
		}
		totalMetrics.WithLabelValues(status.Completed.String()).Inc()
		goapp.Log.Info().Str("ID", id).Str("audio", audioFile).Dur("took", time.Since(start)).Msg("job completed")
	}
	sendStatus(fCtx, data, id)
	return nil
}

func process(ctx context.Context, job *persistence.Job, data *ServiceData) (string, error) {
	doc, err := extractDoc(ctx, job, data)
	if err != nil {
		return "", err
	}
	chunks := chunker.Build(doc, data.MaxChars)
	goapp.Log.Info().Str("ID", job.ID).Int("chunks", len(chunks)).Msg("built chunks")
	if err := data.DB.SetTotal(ctx, job.ID, len(chunks)); err != nil {
		return "", fmt.Errorf("can't save total: %w", err)
	}
	sendStatus(ctx, data, job.ID)

	tracker := &progressTracker{jobID: job.ID, db: data.DB,
		send: func(ctx context.Context, id string) { sendStatus(ctx, data, id) }}
	samples, err := synthesize(ctx, chunks, tracker, data)
	if err != nil {
		return "", err
	}
	name := job.ID + ".wav"
	if err := saveWAV(ctx, filer.AudioName(name), samples, data); err != nil {
		return "", err
	}
	return name, nil
}

func synthesize(ctx context.Context, chunks []chunker.Chunk, tracker *progressTracker, data *ServiceData) (audio.Segment, error) {
	return Narrate(ctx, chunks, data.Synthesizer, data.Voice, tracker.inc)
}

// Narrate synthesizes chunks in order and joins the audio with pauses after each chunk.
// progress is called after every synthesized chunk, may be nil.
// Returns ErrNoAudio if no chunk produced audio
func Narrate(ctx context.Context, chunks []chunker.Chunk, s Synthesizer, voice string,
	progress func(context.Context) error) (audio.Segment, error) {
	var parts []audio.Segment
	produced := false
	for i, ch := range chunks {
		if strings.TrimSpace(ch.Text) != "" {
			start := time.Now()
			segs, err := s.Synthesize(ctx, ch.Text, voice)
			if err != nil {
				return nil, fmt.Errorf("can't synthesize chunk %d: %w", i+1, err)
			}
			chunkDurationMetrics.Observe(time.Since(start).Seconds())
			for _, seg := range segs {
				if len(seg) > 0 {
					produced = true
					parts = append(parts, seg)
				}
			}
			if progress != nil {
				if err := progress(ctx); err != nil {
					return nil, err
				}
			}
		}
		if ch.Announcement {
			parts = append(parts, audio.Silence(announcementPause))
		} else {
			parts = append(parts, audio.Silence(contentPause))
		}
	}
	if !produced {
		return nil, ErrNoAudio
	}
	return audio.Join(parts), nil
}

func extractDoc(ctx context.Context, job *persistence.Job, data *ServiceData) (*extract.Document, error) {
	r, err := data.Filer.LoadFile(ctx, filer.UploadName(job.StoredFile))
	if err != nil {
		return nil, fmt.Errorf("can't load file: %w", err)
	}
	defer r.Close()
	f, err := os.CreateTemp("", "docread-*"+strings.ToLower(filepath.Ext(job.StoredFile)))
	if err != nil {
		return nil, fmt.Errorf("can't create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	_, err = io.Copy(f, r)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return nil, fmt.Errorf("can't copy file: %w", err)
	}
	return data.Extractor.Extract(ctx, f.Name()), nil
}

func saveWAV(ctx context.Context, name string, samples audio.Segment, data *ServiceData) error {
	f, err := os.CreateTemp("", "docread-*.wav")
	if err != nil {
		return fmt.Errorf("can't create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()
	if err := audio.WriteWAV(f, samples, audio.SampleRate); err != nil {
		return fmt.Errorf("can't encode wav: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("can't seek: %w", err)
	}
	if err := data.Filer.SaveFile(ctx, name, f); err != nil {
		return fmt.Errorf("can't save audio: %w", err)
	}
	return nil
}

func sendStatus(ctx context.Context, data *ServiceData, id string) {
	if data.MsgSender == nil {
		return
	}
	if err := data.MsgSender.SendMessage(ctx, messages.NewJobMessage(id), messages.StatusChange); err != nil {
		goapp.Log.Warn().Err(err).Str("ID", id).Msg("can't send status change")
	}
}
