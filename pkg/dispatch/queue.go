package dispatch

import (
	"context"
	"errors"
)

// ErrQueueStopped is returned when sending to a queue whose Run has exited.
var ErrQueueStopped = errors.New("dispatch: queue stopped")

type envelope struct {
	cmd    Command
	result chan bool
}

// Queue serialises commands onto a single goroutine running Run.
type Queue struct {
	dispatcher *Dispatcher
	inbox      chan envelope
	done       chan struct{}
}

// NewQueue buffers up to size commands. Size below one is treated as one.
func NewQueue(dispatcher *Dispatcher, size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{
		dispatcher: dispatcher,
		inbox:      make(chan envelope, size),
		done:       make(chan struct{}),
	}
}

// Run applies queued commands until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-q.inbox:
			applied := q.dispatcher.Dispatch(ctx, env.cmd)
			if env.result != nil {
				env.result <- applied
			}
		}
	}
}

// Send enqueues cmd without waiting for it to run.
func (q *Queue) Send(ctx context.Context, cmd Command) error {
	return q.enqueue(ctx, envelope{cmd: cmd})
}

// Do enqueues cmd and waits for its result.
func (q *Queue) Do(ctx context.Context, cmd Command) (bool, error) {
	env := envelope{cmd: cmd, result: make(chan bool, 1)}
	if err := q.enqueue(ctx, env); err != nil {
		return false, err
	}
	select {
	case applied := <-env.result:
		return applied, nil
	case <-q.done:
		return false, ErrQueueStopped
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (q *Queue) enqueue(ctx context.Context, env envelope) error {
	select {
	case <-q.done:
		return ErrQueueStopped
	default:
	}
	select {
	case q.inbox <- env:
		return nil
	case <-q.done:
		return ErrQueueStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
