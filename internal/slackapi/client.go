// Package slackapi wraps the outbound Slack calls made by the bot.
package slackapi

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// API is the set of outbound Slack operations the bot depends on.
type API interface {
	// SendDirectMessage posts text in the bot's DM with userID.
	SendDirectMessage(ctx context.Context, userID, text string) error
	// Respond posts a delayed response to a slash command response_url.
	Respond(ctx context.Context, responseURL string, msg *slack.WebhookMessage) error
}

// poster is the part of *slack.Client used here.
type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ poster = (*slack.Client)(nil)

type Client struct {
	api     poster
	webhook func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

func NewClient(botToken string) *Client {
	return &Client{
		api:     slack.New(botToken),
		webhook: slack.PostWebhookContext,
	}
}

func (c *Client) SendDirectMessage(ctx context.Context, userID, text string) error {
	if _, _, err := c.api.PostMessageContext(ctx, userID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("failed to send direct message: %w", err)
	}
	return nil
}

func (c *Client) Respond(ctx context.Context, responseURL string, msg *slack.WebhookMessage) error {
	if responseURL == "" {
		return fmt.Errorf("missing response_url")
	}
	if err := c.webhook(ctx, responseURL, msg); err != nil {
		return fmt.Errorf("failed to post to response_url: %w", err)
	}
	return nil
}

var _ API = (*Client)(nil)
