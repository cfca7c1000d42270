package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Notifier sends alert notifications to external channels.
type Notifier interface {
	Notify(alerts []Alert) error
}

// slackNotifier posts storage health alerts to a Slack incoming webhook.
type slackNotifier struct {
	webhookURL string
	docPath    string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier posting to the given Slack webhook URL.
// docPath is the document the alerts are about and is included in each
// notification so multi-store setups can tell them apart.
func NewSlackNotifier(webhookURL, docPath string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		docPath:    docPath,
		client:     &http.Client{},
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify sends the given alerts to the configured Slack webhook.
// It returns nil without making a request if the alerts slice is empty.
func (s *slackNotifier) Notify(alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	msg := s.buildMessage(alerts)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// buildMessage renders one section per alert, led by the triggering
// condition, with a context line carrying severity, document, and time.
func (s *slackNotifier) buildMessage(alerts []Alert) slackMessage {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "flywheel storage health"},
		},
	}

	for _, alert := range alerts {
		section := fmt.Sprintf("%s *%s*: %s",
			severityEmoji(alert.Severity), alert.Condition, alert.Message)
		meta := fmt.Sprintf("severity %s", alert.Severity)
		if s.docPath != "" {
			meta += fmt.Sprintf(" | document `%s`", s.docPath)
		}
		meta += " | " + alert.TriggeredAt.Format("2006-01-02 15:04 UTC")

		blocks = append(blocks,
			slackBlock{
				Type: "section",
				Text: &slackText{Type: "mrkdwn", Text: section},
			},
			slackBlock{
				Type:     "context",
				Elements: []slackText{{Type: "mrkdwn", Text: meta}},
			},
		)
	}

	return slackMessage{Blocks: blocks}
}

func severityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	case SeverityLow:
		return "\U0001f535"
	default:
		return "❓"
	}
}
