package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"resty.dev/v3"

	"github.com/akawula/TaskMatic/internal/timeutils"
)

// maxBlocks is the block-kit limit for a single message.
const maxBlocks = 50

// TaskEvent describes a task that reached the done status.
type TaskEvent struct {
	TaskID       string
	Title        string
	Assignee     string
	StartedAt    time.Time
	FinishedAt   time.Time
	ElapsedHours float64
	URL          string
}

// Notifier delivers task completion events.
type Notifier interface {
	TaskCompleted(ctx context.Context, ev TaskEvent) error
	SendDigest(ctx context.Context, events []TaskEvent) error
}

// NopNotifier drops every event. Used when no webhook is configured.
type NopNotifier struct{}

func (NopNotifier) TaskCompleted(context.Context, TaskEvent) error  { return nil }
func (NopNotifier) SendDigest(context.Context, []TaskEvent) error { return nil }

// WebhookNotifier posts block-kit payloads to a Slack incoming webhook.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger *slog.Logger
}

func NewWebhookNotifier(webhookURL string, logger *slog.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetAllowNonIdempotentRetry(true).
		AddRetryConditions(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &WebhookNotifier{client: client, url: webhookURL, logger: logger}
}

// New picks the webhook notifier when webhookURL is set and the no-op one
// otherwise.
func New(webhookURL string, logger *slog.Logger) Notifier {
	if webhookURL == "" {
		logger.Info("SLACK_WEBHOOK_URL not set, notifications disabled")
		return NopNotifier{}
	}
	return NewWebhookNotifier(webhookURL, logger)
}

// Close releases idle connections held by the client.
func (n *WebhookNotifier) Close() error {
	return n.client.Close()
}

func templateTask(ev TaskEvent) []map[string]interface{} {
	m := fmt.Sprintf("%s\n*%s* finished in %s\nStarted: %s, Finished: %s",
		ev.Title, ev.Assignee, timeutils.FormatHours(ev.ElapsedHours),
		ev.StartedAt.Format(time.DateTime), ev.FinishedAt.Format(time.DateTime))

	section := map[string]interface{}{
		"type": "section",
		"text": map[string]interface{}{
			"type": "mrkdwn",
			"text": m,
		},
	}
	if ev.URL != "" {
		section["accessory"] = map[string]interface{}{
			"type": "button",
			"text": map[string]interface{}{
				"type":  "plain_text",
				"emoji": true,
				"text":  "Open",
			},
			"value":     ev.URL,
			"url":       ev.URL,
			"action_id": ev.TaskID,
		}
	}

	return []map[string]interface{}{
		section,
		{
			"type": "divider",
		},
	}
}

func plainSection(text string) map[string]interface{} {
	return map[string]interface{}{
		"type": "section",
		"text": map[string]interface{}{
			"type":  "plain_text",
			"emoji": true,
			"text":  text,
		},
	}
}

// digestBlocks renders the digest and splits it into messages that respect
// the per-message block limit.
func digestBlocks(events []TaskEvent) [][]map[string]interface{} {
	blocks := []map[string]interface{}{
		plainSection(fmt.Sprintf("%d task(s) were completed yesterday", len(events))),
		{
			"type": "divider",
		},
	}
	for _, ev := range events {
		blocks = append(blocks, templateTask(ev)...)
	}

	var messages [][]map[string]interface{}
	for c := range slices.Chunk(blocks, maxBlocks) {
		messages = append(messages, c)
	}
	return messages
}

func (n *WebhookNotifier) TaskCompleted(ctx context.Context, ev TaskEvent) error {
	blocks := append([]map[string]interface{}{plainSection("Task completed")}, templateTask(ev)...)
	return n.send(ctx, blocks)
}

// SendDigest posts every event, one message per chunk. Nothing is sent for an
// empty slice.
func (n *WebhookNotifier) SendDigest(ctx context.Context, events []TaskEvent) error {
	if len(events) == 0 {
		n.logger.Info("No completed tasks, skipping digest")
		return nil
	}
	var errs []error
	for _, blocks := range digestBlocks(events) {
		if err := n.send(ctx, blocks); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *WebhookNotifier) send(ctx context.Context, blocks []map[string]interface{}) error {
	payload := map[string]interface{}{
		"blocks": blocks,
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("slack webhook request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("slack webhook returned non-200 status code: %d (%s)", resp.StatusCode(), resp.String())
	}
	n.logger.Debug("Slack message sent", "blocks", len(blocks))
	return nil
}
