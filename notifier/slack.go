package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/slack-go/slack"
	"github.com/teamops/curator-rotation/entity"
)

// SlackNotifier announces assignments to the rotation channel.
type SlackNotifier struct {
	client    *slack.Client
	channelID string
	link      string
}

func NewSlackNotifier(client *slack.Client, channelID, link string) *SlackNotifier {
	return &SlackNotifier{client: client, channelID: channelID, link: link}
}

func (n *SlackNotifier) Announce(ctx context.Context, task *entity.NotificationTask) error {
	text := fmt.Sprintf(
		"<@%s> You're the curator for [%s, %s]. %s",
		task.SlackID,
		task.StartOn.Format(time.DateOnly),
		task.EndOn.Format(time.DateOnly),
		n.link,
	)

	if _, _, err := n.client.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("post message: %w", err)
	}

	return nil
}
