// Package slackbot is the asynchronous ingress: it verifies and dispatches
// Slack Events API deliveries and posts answers back to the originating
// channel.
package slackbot

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Poster is the outbound surface the mention handler needs. Kept narrow so
// tests can swap in a recorder.
type Poster interface {
	PostText(ctx context.Context, channelID, text string) error
	PostBlocks(ctx context.Context, channelID string, blocks []slack.Block) error
}

// Client wraps the Slack Web API with the bot token.
type Client struct {
	api *slack.Client
}

// NewClient builds a Web API client from a bot token.
func NewClient(token string) *Client {
	return &Client{api: slack.New(token)}
}

// PostText posts a plain-text message to a channel.
func (c *Client) PostText(ctx context.Context, channelID, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("post message to %s: %w", channelID, err)
	}
	return nil
}

// PostBlocks posts a Block Kit message to a channel.
func (c *Client) PostBlocks(ctx context.Context, channelID string, blocks []slack.Block) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionBlocks(blocks...))
	if err != nil {
		return fmt.Errorf("post blocks to %s: %w", channelID, err)
	}
	return nil
}

// FetchBotUserID resolves the bot's own user id via auth.test. Called once
// at startup, before the event listener accepts traffic, so mention handling
// never observes an identity that is still being fetched.
func (c *Client) FetchBotUserID(ctx context.Context) (string, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("auth.test: %w", err)
	}
	return resp.UserID, nil
}
