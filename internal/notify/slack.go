package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/slack-go/slack"

	"github.com/plateiq/internal/events"
	"github.com/plateiq/pkg/models"
)

// messagePoster is the slice of the Slack client the notifier uses.
type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier posts health warnings and workflow failures to a Slack channel.
// A nil Notifier is valid and does nothing, so wiring stays unconditional.
type Notifier struct {
	client  messagePoster
	channel string
}

// NewNotifier creates a Slack notifier for the given bot token and channel.
func NewNotifier(token, channel string) *Notifier {
	return &Notifier{
		client:  slack.New(token),
		channel: channel,
	}
}

// Register subscribes the notifier to the alert-worthy event types.
func (n *Notifier) Register(bus events.Bus) {
	if n == nil {
		return
	}
	bus.Subscribe(models.EventHealthWarning, events.HandlerFunc{ID: "slack-health", Fn: n.onEvent})
	bus.Subscribe(models.EventWorkflowFailed, events.HandlerFunc{ID: "slack-workflow", Fn: n.onEvent})
}

func (n *Notifier) onEvent(ctx context.Context, event models.Event) error {
	text := formatMessage(event)
	if _, _, err := n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("Failed to post Slack notification: %v", err)
		return err
	}
	return nil
}

func formatMessage(event models.Event) string {
	switch event.Type {
	case models.EventHealthWarning:
		return fmt.Sprintf(":warning: Business health score dropped to %v", event.Payload["score"])
	case models.EventWorkflowFailed:
		return fmt.Sprintf(":x: Workflow %v failed: %v", event.Payload["workflow_id"], event.Payload["error"])
	default:
		return fmt.Sprintf("[%s] %s", event.Severity, event.Description)
	}
}
