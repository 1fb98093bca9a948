package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/akmatori/snowbridge/internal/utils"
	"github.com/slack-go/slack"
)

const maxReasonLen = 500

// SlackPoster is the subset of *slack.Client used by SlackReporter
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackReporter posts events to a Slack channel
type SlackReporter struct {
	client  SlackPoster
	channel string
}

// NewSlackReporter creates a reporter for the given channel
func NewSlackReporter(client SlackPoster, channel string) *SlackReporter {
	return &SlackReporter{client: client, channel: channel}
}

// NewSlackReporterFromToken builds a Slack client from a bot token
func NewSlackReporterFromToken(token, channel string) *SlackReporter {
	return NewSlackReporter(slack.New(token), channel)
}

// Report posts the event. Delivery failures are only logged.
func (r *SlackReporter) Report(ctx context.Context, event Event) {
	_, _, err := r.client.PostMessageContext(
		ctx,
		r.channel,
		slack.MsgOptionText(FormatSlackMessage(event), false),
	)
	if err != nil {
		log.Printf("SlackReporter: failed to post to %s: %v", r.channel, err)
	}
}

// FormatSlackMessage renders an event as Slack mrkdwn
func FormatSlackMessage(event Event) string {
	message := fmt.Sprintf(`%s *ServiceNow ticket skipped*
:id: *Notification:* %s
:gear: *Stage:* %s`,
		stageEmoji(event.Stage),
		valueOrDash(event.NotificationID),
		event.Stage,
	)

	if event.Category != "" {
		message += fmt.Sprintf("\n:file_folder: *Alert:* %s / %s", event.Category, valueOrDash(event.Subtype))
	}
	if event.IssueKey != "" {
		message += fmt.Sprintf("\n:label: *Issue:* %s", event.IssueKey)
	}
	if event.DeviceName != "" {
		message += fmt.Sprintf("\n:computer: *Device:* %s", event.DeviceName)
	}
	if event.Err != nil {
		message += fmt.Sprintf("\n:memo: *Reason:* %s", utils.TruncateText(event.Err.Error(), maxReasonLen))
	}
	return message
}

func stageEmoji(stage Stage) string {
	switch stage {
	case StageSink:
		return ":rotating_light:"
	case StageAssemble:
		return ":warning:"
	default:
		return ":information_source:"
	}
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
