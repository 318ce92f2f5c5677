// Package slack sends high-priority intake notifications to Slack via
// incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/wardline/internal/triage"
)

const (
	// Slack rejects section text longer than this many characters.
	maxSectionLen  = 3000
	handoffHeading = "*Handoff*\n\n"
	httpTimeout    = 10 * time.Second
)

// Notifier sends intake records to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger.With("notifier", "slack"),
	}
}

// Send posts an intake record to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, rec *triage.Record) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(rec)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info(ctx, "slack notification posted", "intake_id", rec.ID, "bytes", len(body))
	return nil
}

func buildMessage(r *triage.Record) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(r),
			{"type": "divider"},
			fieldsBlock(r),
			{"type": "divider"},
			handoffBlock(r),
			contextBlock(r),
		},
	}
}

func headerBlock(r *triage.Record) map[string]any {
	var title string
	switch r.Status {
	case triage.StatusAssigned:
		title = "Incoming to " + r.Hospital
	case triage.StatusNoCapacity:
		title = "No Bed Available"
	default:
		title = "Patient Scored"
	}
	text := fmt.Sprintf("%s %s Priority: %s", levelEmoji(r.Level), r.Level, title)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(r *triage.Record) map[string]any {
	factors := "none"
	if len(r.Factors) > 0 {
		factors = strings.Join(r.Factors, ", ")
	}

	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Score:* %d/%d", r.Score, triage.MaxScore),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Status:* %s", r.Status),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Factors:* %s", factors),
		},
	}
	if r.Assigned() {
		fields = append(fields,
			map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Hospital:* %s", r.Hospital),
			},
			map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Distance:* %.1f mi", r.DistanceMiles),
			},
			map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Beds left:* %d", r.BedsRemaining),
			},
		)
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func handoffBlock(r *triage.Record) map[string]any {
	text := truncate(r.Handoff, maxSectionLen-utf8.RuneCountInString(handoffHeading))
	if text == "" {
		text = "_No handoff note._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": handoffHeading + text,
		},
	}
}

func contextBlock(r *triage.Record) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("wardline • intake %s • %s", r.ID, r.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func levelEmoji(level triage.Level) string {
	switch level {
	case triage.LevelHigh:
		return "\U0001f534" // red circle
	case triage.LevelMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

// truncate shortens s to at most limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}
