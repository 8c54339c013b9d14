package service

import (
	"context"
	"fmt"

	"daily-habits-tracker/internal/domain/entity"
	"daily-habits-tracker/internal/domain/service"
	"daily-habits-tracker/internal/infrastructure/slack"
	"daily-habits-tracker/internal/logger"
)

type notifier struct {
	habitService service.HabitService
	gateway      service.ChatGateway
	publisher    service.EventPublisher
}

// NewNotifier creates the periodic summary notifier
func NewNotifier(habitService service.HabitService, gateway service.ChatGateway, publisher service.EventPublisher) service.Notifier {
	if publisher == nil {
		publisher = NopPublisher{}
	}

	return &notifier{
		habitService: habitService,
		gateway:      gateway,
		publisher:    publisher,
	}
}

// DoTimer posts every habit, done or not, unless all of them are done.
// A failed post is returned as is and never retried.
func (n *notifier) DoTimer(ctx context.Context) (entity.NotifyOutcome, error) {
	statuses, err := n.habitService.ListHabits(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load habits: %w", err)
	}

	pending := 0
	for _, status := range statuses {
		if !status.Done {
			pending++
		}
	}

	if pending == 0 {
		n.publish(ctx, entity.EventSummarySkipped, 0)
		return entity.NotifyOutcomeSkipped, nil
	}

	if err := n.gateway.PostMessage(ctx, slack.SummaryHeader, slack.BuildSummaryBlocks(statuses)); err != nil {
		return "", fmt.Errorf("failed to send summary: %w", err)
	}

	n.publish(ctx, entity.EventSummarySent, pending)
	return entity.NotifyOutcomeSent, nil
}

func (n *notifier) publish(ctx context.Context, eventType entity.EventType, pending int) {
	event := entity.NewHabitEvent(eventType, nil)
	event.Pending = pending
	if err := n.publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish summary event", "type", eventType, "error", err)
	}
}
