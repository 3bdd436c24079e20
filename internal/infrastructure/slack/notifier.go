// Package slack delivers rendered messages to a Slack channel.
package slack

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"ResearchAssistant/internal/config"
	"ResearchAssistant/internal/ports"
)

const defaultAPIURL = "https://slack.com/api/"

// Notifier posts messages with a bot token.
type Notifier struct {
	api     *slack.Client
	channel string
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier builds a notifier; the token and channel are required.
func NewNotifier(cfg config.SlackConfig) (*Notifier, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, fmt.Errorf("missing slack bot token")
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		return nil, fmt.Errorf("missing slack channel")
	}
	base := strings.TrimSpace(cfg.APIURL)
	if base == "" {
		base = defaultAPIURL
	}
	base = strings.TrimRight(base, "/") + "/"

	api := slack.New(token,
		slack.OptionHTTPClient(&http.Client{Timeout: 10 * time.Second}),
		slack.OptionAPIURL(base),
	)
	return &Notifier{api: api, channel: channel}, nil
}

// Name identifies the channel in logs.
func (n *Notifier) Name() string { return "slack" }

// Publish posts message as plain text; Slack renders its own markdown subset.
func (n *Notifier) Publish(ctx context.Context, message string) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(message, false))
	if err != nil {
		return fmt.Errorf("slack post to %s: %w", n.channel, err)
	}
	return nil
}
