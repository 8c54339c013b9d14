package service

import (
	"context"
	"errors"
	"testing"

	"daily-habits-tracker/internal/domain/entity"
	"daily-habits-tracker/internal/infrastructure/slack"

	slackapi "github.com/slack-go/slack"
)

type fakeGateway struct {
	posts   [][]slackapi.Block
	texts   []string
	postErr error
}

func (g *fakeGateway) PostMessage(ctx context.Context, text string, blocks []slackapi.Block) error {
	g.posts = append(g.posts, blocks)
	g.texts = append(g.texts, text)
	return g.postErr
}

func (g *fakeGateway) OpenModal(ctx context.Context, triggerID string, view slackapi.ModalViewRequest, push bool) error {
	return nil
}

func TestDoTimerSendsAllHabits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)
	f.add(t, "read", "walk", "run")
	if _, _, err := f.svc.MarkHabitAsDone(ctx, 1); err != nil {
		t.Fatalf("MarkHabitAsDone failed: %v", err)
	}

	gateway := &fakeGateway{}
	outcome, err := NewNotifier(f.svc, gateway, f.publisher).DoTimer(ctx)
	if err != nil {
		t.Fatalf("DoTimer failed: %v", err)
	}

	if outcome != entity.NotifyOutcomeSent {
		t.Errorf("outcome = %s, want sent", outcome)
	}
	if len(gateway.posts) != 1 {
		t.Fatalf("posted %d messages, want 1", len(gateway.posts))
	}
	// Header plus every habit, including the done one
	if got := len(gateway.posts[0]); got != 4 {
		t.Errorf("posted %d blocks, want 4", got)
	}
	if gateway.texts[0] != slack.SummaryHeader {
		t.Errorf("text = %q, want %q", gateway.texts[0], slack.SummaryHeader)
	}

	last := f.publisher.events[len(f.publisher.events)-1]
	if last.Type != entity.EventSummarySent || last.Pending != 2 {
		t.Errorf("last event = %s pending %d, want summary.sent pending 2", last.Type, last.Pending)
	}
}

func TestDoTimerSkipsWhenAllDone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)
	f.add(t, "read", "walk")
	for i := 0; i < 2; i++ {
		if _, _, err := f.svc.MarkHabitAsDone(ctx, i); err != nil {
			t.Fatalf("MarkHabitAsDone failed: %v", err)
		}
	}

	gateway := &fakeGateway{}
	outcome, err := NewNotifier(f.svc, gateway, f.publisher).DoTimer(ctx)
	if err != nil {
		t.Fatalf("DoTimer failed: %v", err)
	}

	if outcome != entity.NotifyOutcomeSkipped {
		t.Errorf("outcome = %s, want skipped", outcome)
	}
	if len(gateway.posts) != 0 {
		t.Errorf("posted %d messages, want none", len(gateway.posts))
	}

	last := f.publisher.events[len(f.publisher.events)-1]
	if last.Type != entity.EventSummarySkipped {
		t.Errorf("last event = %s, want summary.skipped", last.Type)
	}
}

func TestDoTimerSkipsEmptyTable(t *testing.T) {
	f := newFixture(t, 4)
	gateway := &fakeGateway{}

	outcome, err := NewNotifier(f.svc, gateway, nil).DoTimer(context.Background())
	if err != nil {
		t.Fatalf("DoTimer failed: %v", err)
	}
	if outcome != entity.NotifyOutcomeSkipped || len(gateway.posts) != 0 {
		t.Errorf("outcome = %s with %d posts, want skipped with none", outcome, len(gateway.posts))
	}
}

func TestDoTimerSurfacesSendFailure(t *testing.T) {
	f := newFixture(t, 4)
	f.add(t, "read")

	sendErr := &slack.TransportError{Op: "post message", Err: errors.New("connection refused")}
	gateway := &fakeGateway{postErr: sendErr}

	outcome, err := NewNotifier(f.svc, gateway, f.publisher).DoTimer(context.Background())

	var transportErr *slack.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want *slack.TransportError", err)
	}
	if outcome != "" {
		t.Errorf("outcome = %q, want none", outcome)
	}
	if len(gateway.posts) != 1 {
		t.Errorf("posted %d times, want exactly 1 attempt", len(gateway.posts))
	}

	for _, event := range f.publisher.events {
		if event.Type == entity.EventSummarySent {
			t.Error("summary.sent published for a failed post")
		}
	}
}
