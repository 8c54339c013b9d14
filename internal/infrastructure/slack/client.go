// Package slack is the chat gateway: it posts habit summaries to an
// incoming webhook and opens modals through the Slack Web API.
package slack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"daily-habits-tracker/internal/config"

	slackapi "github.com/slack-go/slack"
)

// TransportError reports that Slack was unreachable or answered with a failure
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("slack %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client sends messages and modals to Slack
type Client struct {
	webhookURL string
	httpClient *http.Client
	api        *slackapi.Client
}

// NewClient creates a Slack client from the slack config section
func NewClient(cfg *config.SlackConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = config.DefaultSlackAPIURL
	}

	return &Client{
		webhookURL: cfg.WebhookURL,
		httpClient: httpClient,
		api: slackapi.New(cfg.AccessToken,
			slackapi.OptionAPIURL(apiURL),
			slackapi.OptionHTTPClient(httpClient),
		),
	}
}

// PostMessage posts {text, blocks} to the configured webhook. It does not retry.
func (c *Client) PostMessage(ctx context.Context, text string, blocks []slackapi.Block) error {
	msg := &slackapi.WebhookMessage{
		Text:   text,
		Blocks: &slackapi.Blocks{BlockSet: blocks},
	}

	if err := slackapi.PostWebhookCustomHTTPContext(ctx, c.webhookURL, c.httpClient, msg); err != nil {
		return &TransportError{Op: "post message", Err: err}
	}

	return nil
}

// OpenModal opens view for triggerID, or pushes it onto the open modal stack
// when push is set. Trigger ids expire within seconds, so call this before
// any other work triggered by the same interaction.
func (c *Client) OpenModal(ctx context.Context, triggerID string, view slackapi.ModalViewRequest, push bool) error {
	var err error
	op := "views.open"
	if push {
		op = "views.push"
		_, err = c.api.PushViewContext(ctx, triggerID, view)
	} else {
		_, err = c.api.OpenViewContext(ctx, triggerID, view)
	}

	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	return nil
}
