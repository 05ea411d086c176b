package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vgarvardt/gue/v5"
	"github.com/vgarvardt/gue/v5/adapter/pgxv5"
)

// Sender puts messages into gue queues, the job row and the gue job live in the same database
type Sender struct {
	gc *gue.Client
}

// NewGueClient creates gue client on the pool
func NewGueClient(pool *pgxpool.Pool) (*gue.Client, error) {
	gc, err := gue.NewClient(pgxv5.NewConnPool(pool))
	if err != nil {
		return nil, fmt.Errorf("can't init gue: %w", err)
	}
	return gc, nil
}

// NewSender initializes gue sender
func NewSender(gc *gue.Client) (*Sender, error) {
	if gc == nil {
		return nil, fmt.Errorf("no gue client")
	}
	return &Sender{gc: gc}, nil
}

// SendMessage enqueues the message, the queue name is used as gue job type
func (sender *Sender) SendMessage(ctx context.Context, msg messages.Message, queue string) error {
	args, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("can't marshal msg: %w", err)
	}

	j := &gue.Job{
		Type:  queue,
		Queue: queue,
		Args:  args,
	}
	if err := sender.gc.Enqueue(ctx, j); err != nil {
		return fmt.Errorf("can't send msg to %s: %w", queue, err)
	}
	goapp.Log.Debug().Str("queue", queue).Msg("sent")
	return nil
}
