package notify

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts notifications to a single Slack channel.
type Slack struct {
	client    slackClient
	channelID string
}

// SlackOpts holds parameters for creating a Slack notifier.
type SlackOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// NewSlack creates a Slack notifier.
func NewSlack(opts SlackOpts) (*Slack, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel id is required")
	}
	s := &Slack{channelID: opts.ChannelID, client: opts.Client}
	if s.client == nil {
		s.client = slackapi.New(opts.BotToken)
	}
	return s, nil
}

// Notify posts the message as an attachment with a severity color bar.
func (s *Slack) Notify(ctx context.Context, msg Message) error {
	attachment := slackapi.Attachment{
		Title: msg.Title,
		Text:  msg.Body,
		Color: severityColor(msg.Severity),
	}
	_, _, err := s.client.PostMessageContext(ctx, s.channelID,
		slackapi.MsgOptionAttachments(attachment))
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

func severityColor(severity string) string {
	switch severity {
	case SeveritySuccess:
		return "#36a64f"
	case SeverityError:
		return "#d00000"
	default:
		return "#439fe0"
	}
}
