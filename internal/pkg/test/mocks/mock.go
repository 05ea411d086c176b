package mocks

import (
	"context"
	"io"

	"github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/docread/internal/pkg/audio"
	"github.com/airenas/docread/internal/pkg/extract"
	"github.com/airenas/docread/internal/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// Filer is file storage mock
type Filer struct{ mock.Mock }

func (m *Filer) SaveFile(ctx context.Context, name string, r io.Reader) error {
	args := m.Called(ctx, name, r)
	return args.Error(0)
}

// LoadFile func mock
func (m *Filer) LoadFile(ctx context.Context, fileName string) (io.ReadSeekCloser, error) {
	args := m.Called(ctx, fileName)
	return to[io.ReadSeekCloser](args.Get(0)), args.Error(1)
}

func (m *Filer) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// DB is job store mock
type DB struct{ mock.Mock }

func (m *DB) InsertJob(ctx context.Context, job *persistence.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *DB) LoadJob(ctx context.Context, id string) (*persistence.Job, error) {
	args := m.Called(ctx, id)
	return to[*persistence.Job](args.Get(0)), args.Error(1)
}

func (m *DB) ListJobs(ctx context.Context) ([]*persistence.Job, error) {
	args := m.Called(ctx)
	return to[[]*persistence.Job](args.Get(0)), args.Error(1)
}

func (m *DB) GetQueued(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return to[[]string](args.Get(0)), args.Error(1)
}

func (m *DB) MarkProcessing(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *DB) SetTotal(ctx context.Context, id string, total int) error {
	args := m.Called(ctx, id, total)
	return args.Error(0)
}

func (m *DB) SetProgress(ctx context.Context, id string, progress int) error {
	args := m.Called(ctx, id, progress)
	return args.Error(0)
}

func (m *DB) MarkCompleted(ctx context.Context, id, audioFile string) error {
	args := m.Called(ctx, id, audioFile)
	return args.Error(0)
}

func (m *DB) MarkFailed(ctx context.Context, id, errStr string) error {
	args := m.Called(ctx, id, errStr)
	return args.Error(0)
}

func (m *DB) Clear(ctx context.Context, force bool) ([]*persistence.Job, error) {
	args := m.Called(ctx, force)
	return to[[]*persistence.Job](args.Get(0)), args.Error(1)
}

// Sender is queue mock
type Sender struct{ mock.Mock }

func (m *Sender) SendMessage(ctx context.Context, msg messages.Message, queue string) error {
	args := m.Called(ctx, msg, queue)
	return args.Error(0)
}

// Synthesizer is synthesis engine mock
type Synthesizer struct{ mock.Mock }

func (m *Synthesizer) Synthesize(ctx context.Context, text, voice string) ([]audio.Segment, error) {
	args := m.Called(ctx, text, voice)
	return to[[]audio.Segment](args.Get(0)), args.Error(1)
}

// Extractor is document parser mock
type Extractor struct{ mock.Mock }

func (m *Extractor) Extract(ctx context.Context, fileName string) *extract.Document {
	args := m.Called(ctx, fileName)
	return to[*extract.Document](args.Get(0))
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
