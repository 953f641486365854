package commands

import (
	"context"
	"time"

	"github.com/mosS-Green/plugins/internal/telegram"
)

// Command is a chat command. Handle decides between running now and
// enqueueing; Execute does the work.
type Command interface {
	Name() string
	Aliases() []string
	Handle(ctx context.Context, update telegram.Update) error
	Execute(ctx context.Context, update telegram.Update) error
	GetQueueConfig() QueueConfig
}

type ThrottleConfig struct {
	Period      time.Duration
	Requests    int
	Concurrency int
}

type QueueConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Throttle   ThrottleConfig
}

// CallbackHandler is implemented by commands that own inline buttons. Button
// data has the form "<command name> <args>".
type CallbackHandler interface {
	HandleCallback(ctx context.Context, query *telegram.CallbackQuery, args string) error
}
