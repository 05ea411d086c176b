package statusservice

import (
	"context"
	"fmt"
	"time"

	"github.com/airenas/docread/internal/pkg/memqueue"
	"github.com/airenas/docread/internal/pkg/messages"
	"github.com/airenas/docread/internal/pkg/utils"
	"github.com/airenas/docread/internal/pkg/utils/handler"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"
)

// HandlerData keeps data required for handler
type HandlerData struct {
	GueClient   *gue.Client
	WorkerCount int
	DB          DB
	WSHandler   WSConnHandler
}

// StartStatusHandler starts the gue queue listener for status events
// returns channel for tracking if all jobs are finished
func StartStatusHandler(ctx context.Context, data *HandlerData) (chan struct{}, error) {
	if err := validateHandler(data); err != nil {
		return nil, err
	}
	if data.GueClient == nil {
		return nil, fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return nil, fmt.Errorf("no worker count provided")
	}
	goapp.Log.Info().Msg("Starting listen for messages")

	wm := gue.WorkMap{
		messages.StatusChange: handler.Create(data, handleStatus, handler.DefaultOpts[messages.JobMessage]().
			WithFailure(handler.NoRetry[messages.JobMessage]).WithTimeout(time.Minute)),
	}

	pool, err := gue.NewWorkerPool(
		data.GueClient, wm, data.WorkerCount,
		gue.WithPoolQueue(messages.StatusChange),
		gue.WithPoolLogger(utils.NewGueLoggerAdapter()),
		gue.WithPoolPollInterval(500*time.Millisecond),
		gue.WithPoolPollStrategy(gue.RunAtPollStrategy),
		gue.WithPoolID("status-worker"),
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

// StartMemoryStatusHandler listens for status events on the in process queue
func StartMemoryStatusHandler(ctx context.Context, data *HandlerData, broker *memqueue.Broker) (<-chan struct{}, error) {
	if err := validateHandler(data); err != nil {
		return nil, err
	}
	if broker == nil {
		return nil, fmt.Errorf("no broker")
	}
	return memqueue.Listen(ctx, broker, messages.StatusChange, func(ctx context.Context, m *messages.JobMessage) error {
		return handleStatus(ctx, m, data)
	}), nil
}

func handleStatus(ctx context.Context, m *messages.JobMessage, data *HandlerData) error {
	goapp.Log.Debug().Str("ID", m.ID).Msg("handling status change event")

	conns, found := data.WSHandler.GetConnections(m.ID)
	if !found {
		goapp.Log.Debug().Str("ID", m.ID).Msg("no connections found")
		return nil
	}
	res, err := loadStatus(ctx, data.DB, m.ID)
	if err != nil {
		return err
	}
	for _, c := range conns {
		if err := sendMsg(c, m.ID, res); err != nil {
			goapp.Log.Error().Err(err).Send()
		}
	}
	return nil
}

func sendMsg(c WsConn, id string, res interface{}) error {
	goapp.Log.Debug().Str("ID", id).Msg("Sending result to websocket")
	err := c.WriteJSON(res)
	if err != nil {
		return fmt.Errorf("cannot write to websocket: %w", err)
	}
	return nil
}

func validateHandler(data *HandlerData) error {
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.WSHandler == nil {
		return fmt.Errorf("no WSHandler")
	}
	return nil
}
