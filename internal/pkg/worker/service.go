package worker

import (
	"context"
	"fmt"
	"io"
	"time"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/docread/internal/pkg/audio"
	"github.com/airenas/docread/internal/pkg/extract"
	"github.com/airenas/docread/internal/pkg/memqueue"
	"github.com/airenas/docread/internal/pkg/messages"
	"github.com/airenas/docread/internal/pkg/persistence"
	"github.com/airenas/docread/internal/pkg/utils"
	"github.com/airenas/docread/internal/pkg/utils/handler"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"
)

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// DB provides job persistence functionality
type DB interface {
	LoadJob(ctx context.Context, id string) (*persistence.Job, error)
	MarkProcessing(ctx context.Context, id string) (bool, error)
	SetTotal(ctx context.Context, id string, total int) error
	SetProgress(ctx context.Context, id string, progress int) error
	MarkCompleted(ctx context.Context, id, audioFile string) error
	MarkFailed(ctx context.Context, id, errStr string) error
}

// Filer retrieves and saves files
type Filer interface {
	LoadFile(ctx context.Context, fileName string) (io.ReadSeekCloser, error)
	SaveFile(ctx context.Context, name string, r io.Reader) error
}

// Extractor reads document structure from a local file
type Extractor interface {
	Extract(ctx context.Context, fileName string) *extract.Document
}

// Synthesizer turns text into audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]audio.Segment, error)
}

// ServiceData keeps data required for service work
type ServiceData struct {
	GueClient   *gue.Client
	MsgSender   MsgSender
	DB          DB
	Filer       Filer
	Extractor   Extractor
	Synthesizer Synthesizer
	Voice       string
	MaxChars    int
	// Timeout per job, 0 - no timeout
	Timeout time.Duration
	Testing bool
}

const workerCount = 1

// StartWorkerService starts the gue queue listener with a single worker
// returns channel for tracking if all jobs are finished
func StartWorkerService(ctx context.Context, data *ServiceData) (chan struct{}, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	if data.GueClient == nil {
		return nil, fmt.Errorf("no gue client")
	}
	logStart(data)

	wm := gue.WorkMap{
		messages.Work: handler.Create(data, handleJob, handler.DefaultOpts[messages.JobMessage]().
			WithFailure(handler.NoRetry[messages.JobMessage]).WithTimeout(data.Timeout).
			WithBackoff(handler.DefaultBackoffOrTest(data.Testing))),
	}

	pool, err := gue.NewWorkerPool(
		data.GueClient, wm, workerCount,
		gue.WithPoolQueue(messages.Work),
		gue.WithPoolLogger(utils.NewGueLoggerAdapter()),
		gue.WithPoolPollInterval(500*time.Millisecond),
		gue.WithPoolPollStrategy(gue.RunAtPollStrategy),
		gue.WithPoolID("docread-worker"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not build gue workers pool: %w", err)
	}
	res := make(chan struct{}, 1)
	go func() {
		goapp.Log.Info().Msg("Starting workers")
		if err := pool.Run(ctx); err != nil {
			goapp.Log.Error().Err(err).Msg("pool error")
		}
		goapp.Log.Info().Msg("Pool workers finished")
		res <- struct{}{}
	}()
	return res, nil
}

// StartMemoryWorker starts the single worker on the in process queue
// returns channel for tracking if the worker is finished
func StartMemoryWorker(ctx context.Context, data *ServiceData, broker *memqueue.Broker) (<-chan struct{}, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	if broker == nil {
		return nil, fmt.Errorf("no broker")
	}
	logStart(data)
	return memqueue.Listen(ctx, broker, messages.Work, func(ctx context.Context, m *messages.JobMessage) error {
		var cf context.CancelFunc = func() {}
		if data.Timeout > 0 {
			ctx, cf = context.WithTimeout(ctx, data.Timeout)
		}
		defer cf()
		return handleJob(ctx, m, data)
	}), nil
}

func logStart(data *ServiceData) {
	goapp.Log.Info().Int("workers", workerCount).Str("voice", data.Voice).Dur("timeout", data.Timeout).
		Msg("Starting listen for messages")
	if data.Testing {
		goapp.Log.Warn().Msg("SERVICE IN TEST MODE")
	}
}

func validate(data *ServiceData) error {
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.Filer == nil {
		return fmt.Errorf("no Filer")
	}
	if data.Extractor == nil {
		return fmt.Errorf("no Extractor")
	}
	if data.Synthesizer == nil {
		return fmt.Errorf("no Synthesizer")
	}
	if data.Voice == "" {
		return fmt.Errorf("no voice")
	}
	return nil
}
