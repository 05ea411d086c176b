package memqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
)

// Broker is an in process FIFO message queue.
// Messages are lost on restart
type Broker struct {
	lock   sync.Mutex
	queues map[string]*fifo
}

type fifo struct {
	items  [][]byte
	signal chan struct{}
}

// NewBroker creates empty broker
func NewBroker() *Broker {
	return &Broker{queues: map[string]*fifo{}}
}

// SendMessage appends the message to the queue, never blocks
func (b *Broker) SendMessage(ctx context.Context, msg amessages.Message, queue string) error {
	goapp.Log.Debug().Str("queue", queue).Msg("Sending message")
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("can't marshal msg: %w", err)
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	q := b.get(queue)
	q.items = append(q.items, data)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// Get takes the first message or blocks until one arrives or ctx is done
func (b *Broker) Get(ctx context.Context, queue string) ([]byte, error) {
	for {
		b.lock.Lock()
		q := b.get(queue)
		if len(q.items) > 0 {
			res := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			b.lock.Unlock()
			return res, nil
		}
		signal := q.signal
		b.lock.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-signal:
		}
	}
}

// Len returns count of waiting messages
func (b *Broker) Len(queue string) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.get(queue).items)
}

func (b *Broker) get(queue string) *fifo {
	res, ok := b.queues[queue]
	if !ok {
		res = &fifo{signal: make(chan struct{}, 1)}
		b.queues[queue] = res
	}
	return res
}

// Listen handles messages one by one until ctx is done.
// Returns channel closed when the loop exits
func Listen[TM any](ctx context.Context, b *Broker, queue string, hf func(context.Context, *TM) error) <-chan struct{} {
	res := make(chan struct{})
	go func() {
		defer close(res)
		goapp.Log.Info().Str("queue", queue).Msg("Starting listen for messages")
		for {
			data, err := b.Get(ctx, queue)
			if err != nil {
				goapp.Log.Info().Str("queue", queue).Msg("Listen finished")
				return
			}
			var m TM
			if err := json.Unmarshal(data, &m); err != nil {
				goapp.Log.Error().Err(err).Str("queue", queue).Msg("could not unmarshal message")
				continue
			}
			if err := hf(ctx, &m); err != nil {
				goapp.Log.Error().Err(err).Str("queue", queue).Msg("fail")
			}
		}
	}()
	return res
}
