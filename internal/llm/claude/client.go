// Package claude writes receiving-hospital handoff notes for high-priority
// intakes through the Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/wardline/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/wardline/internal/llm/claude")

const maxTokens = 300

const systemPrompt = `You write handoff notes for an emergency department receiving an incoming patient.
Use only the facts given. Do not invent vitals, history or identity.
Reply with at most three short sentences in plain text: priority, the findings that drove it, and what the receiving team should prepare.`

// Client implements triage.Summarizer on the Claude Messages API.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a Claude client with the given API key and model name. Extra
// request options are applied after the key (e.g. option.WithBaseURL in tests).
func New(apiKey, model string, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Handoff asks the model for a short note describing rec for the receiving hospital.
func (c *Client) Handoff(ctx context.Context, rec *triage.Record) (string, error) {
	ctx, span := tracer.Start(ctx, "claude.Handoff", trace.WithAttributes(
		attribute.String("gen_ai.system", "anthropic"),
		attribute.String("gen_ai.request.model", c.model),
		attribute.String("wardline.intake.id", rec.ID),
	))
	defer span.End()

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(rec))),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("claude: messages.new: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", msg.Usage.InputTokens),
		attribute.Int64("gen_ai.usage.output_tokens", msg.Usage.OutputTokens),
	)

	note := textOf(msg)
	if note == "" {
		err := errors.New("claude: empty response")
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return note, nil
}

// buildPrompt describes the intake using only the outcome fields. Raw vitals
// are never stored, so the fired factors are all the model sees.
func buildPrompt(rec *triage.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Triage level: %s (score %d of %d)\n", rec.Level, rec.Score, triage.MaxScore)

	if len(rec.Factors) > 0 {
		b.WriteString("Findings:\n")
		for _, f := range rec.Factors {
			fmt.Fprintf(&b, "- %s\n", factorText(f))
		}
	} else {
		b.WriteString("Findings: none of the scored criteria\n")
	}

	switch rec.Status {
	case triage.StatusAssigned:
		fmt.Fprintf(&b, "Destination: %s, %.1f miles away, %d beds left after this patient\n",
			rec.Hospital, rec.DistanceMiles, rec.BedsRemaining)
	case triage.StatusNoCapacity:
		b.WriteString("Destination: none, every hospital in the region is full\n")
	}
	return b.String()
}

var factorDescriptions = map[string]string{
	triage.FactorAge65Plus:    "age 65 or older",
	triage.FactorAge50To64:    "age 50 to 64",
	triage.FactorTachycardia:  "heart rate above 100 bpm",
	triage.FactorFever:        "body temperature 103F or higher",
	triage.FactorHypoxemia:    "oxygen saturation below 90%",
	triage.FactorHypertension: "systolic blood pressure 140 or higher",
}

func factorText(f string) string {
	if d, ok := factorDescriptions[f]; ok {
		return d
	}
	return f
}

func textOf(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			parts = append(parts, strings.TrimSpace(block.Text))
		}
	}
	return strings.Join(parts, "\n")
}
