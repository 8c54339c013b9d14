package service

import (
	"context"

	"daily-habits-tracker/internal/domain/entity"

	slackapi "github.com/slack-go/slack"
)

// Locker provides mutual exclusion over the habits table
type Locker interface {
	// Lock blocks until the lock is held or ctx is done. The returned
	// function releases the lock and is safe to call more than once.
	Lock(ctx context.Context) (func(), error)
}

// EventPublisher publishes habit events
type EventPublisher interface {
	Publish(ctx context.Context, event *entity.HabitEvent) error
}

// ChatGateway sends messages and modals to the chat platform
type ChatGateway interface {
	PostMessage(ctx context.Context, text string, blocks []slackapi.Block) error
	OpenModal(ctx context.Context, triggerID string, view slackapi.ModalViewRequest, push bool) error
}
