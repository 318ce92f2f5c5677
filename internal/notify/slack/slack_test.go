package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/wardline/internal/triage"
)

func assignedRecord() *triage.Record {
	return &triage.Record{
		ID:            "01JN123",
		Status:        triage.StatusAssigned,
		Score:         4,
		Level:         triage.LevelHigh,
		Factors:       []string{"age_65_plus", "tachycardia", "hypoxemia"},
		Hospital:      "City Hospital",
		DistanceMiles: 2.34,
		BedsRemaining: 4,
		Handoff:       "Elderly patient, tachycardic and hypoxemic.",
		CreatedAt:     time.Date(2026, 2, 26, 14, 23, 0, 0, time.UTC),
	}
}

func fieldTexts(t *testing.T, block any) []string {
	t.Helper()
	fields := block.(map[string]any)["fields"].([]any)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.(map[string]any)["text"].(string))
	}
	return out
}

func TestSend_PostsToWebhook(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, log.Nop())
	if err := n.Send(context.Background(), assignedRecord()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	blocks, ok := got["blocks"].([]any)
	if !ok {
		t.Fatal("expected blocks array in payload")
	}

	// header, divider, fields, divider, handoff, context = 6 blocks
	if len(blocks) != 6 {
		t.Fatalf("blocks count = %d, want 6", len(blocks))
	}

	header := blocks[0].(map[string]any)
	headerText := header["text"].(map[string]any)["text"].(string)
	if !strings.Contains(headerText, "City Hospital") {
		t.Errorf("header text = %q, want to contain City Hospital", headerText)
	}
	if !strings.Contains(headerText, "\U0001f534") {
		t.Errorf("header should contain red circle for High level")
	}

	fields := strings.Join(fieldTexts(t, blocks[2]), "\n")
	for _, want := range []string{"*Score:* 4/6", "age_65_plus, tachycardia, hypoxemia", "*Distance:* 2.3 mi", "*Beds left:* 4"} {
		if !strings.Contains(fields, want) {
			t.Errorf("fields missing %q:\n%s", want, fields)
		}
	}

	ctxText := blocks[5].(map[string]any)["elements"].([]any)[0].(map[string]any)["text"].(string)
	if !strings.Contains(ctxText, "01JN123") || !strings.Contains(ctxText, "2026-02-26 14:23 UTC") {
		t.Errorf("context text = %q", ctxText)
	}
}

func TestSend_NoOpWithoutURL(t *testing.T) {
	t.Parallel()

	n := New("", log.Nop())
	if err := n.Send(context.Background(), &triage.Record{}); err != nil {
		t.Fatalf("Send with empty URL should be no-op, got: %v", err)
	}
}

func TestBuildMessage_NoCapacity(t *testing.T) {
	t.Parallel()

	r := assignedRecord()
	r.Status = triage.StatusNoCapacity
	r.Hospital = ""
	r.Handoff = ""

	blocks := buildMessage(r)["blocks"].([]map[string]any)

	headerText := blocks[0]["text"].(map[string]any)["text"].(string)
	if !strings.Contains(headerText, "No Bed Available") {
		t.Errorf("header text = %q, want No Bed Available", headerText)
	}
	if n := len(blocks[2]["fields"].([]map[string]any)); n != 3 {
		t.Errorf("fields = %d, want 3 without an assignment", n)
	}
	handoff := blocks[4]["text"].(map[string]any)["text"].(string)
	if !strings.Contains(handoff, "_No handoff note._") {
		t.Errorf("handoff text = %q", handoff)
	}
}

func TestSend_TruncatesLongHandoff(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := assignedRecord()
	r.Handoff = strings.Repeat("x", 4000)
	if err := New(srv.URL, log.Nop()).Send(context.Background(), r); err != nil {
		t.Fatalf("Send: %v", err)
	}

	blocks := got["blocks"].([]any)
	text := blocks[4].(map[string]any)["text"].(map[string]any)["text"].(string)

	if n := utf8.RuneCountInString(text); n != maxSectionLen {
		t.Errorf("handoff text length = %d, want %d", n, maxSectionLen)
	}
	if !strings.HasSuffix(text, "...") {
		t.Error("expected truncated handoff to end with ...")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short", "abc", 10, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"ascii cut", "abcdefgh", 6, "abc..."},
		{"multibyte kept whole", "ééééé", 5, "ééééé"},
		{"multibyte cut", "ééééééé", 5, "éé..."},
		{"emoji cut", "\U0001f534\U0001f534\U0001f534\U0001f534\U0001f534", 4, "\U0001f534..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := truncate(tt.in, tt.limit)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.limit)
			}
		})
	}
}

func TestHandoffBlock_MultibyteWithinLimit(t *testing.T) {
	t.Parallel()

	r := assignedRecord()
	r.Handoff = strings.Repeat("ü", 3500)

	text := handoffBlock(r)["text"].(map[string]any)["text"].(string)
	if !utf8.ValidString(text) {
		t.Fatal("handoff text is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(text); n > maxSectionLen {
		t.Errorf("handoff text = %d characters, Slack allows %d", n, maxSectionLen)
	}
	if !strings.HasPrefix(text, handoffHeading) || !strings.HasSuffix(text, "...") {
		t.Errorf("handoff text framing wrong: %q...%q", text[:20], text[len(text)-10:])
	}
}

func TestLevelEmoji(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level triage.Level
		want  string
	}{
		{triage.LevelHigh, "\U0001f534"},
		{triage.LevelMedium, "\U0001f7e1"},
		{triage.LevelLow, "\U0001f7e2"},
		{"", "\U0001f7e2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			t.Parallel()
			if got := levelEmoji(tt.level); got != tt.want {
				t.Errorf("levelEmoji(%q) = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func FuzzSlackBuild(f *testing.F) {
	f.Add("City Hospital", "High", "Elderly, febrile.", "fever")
	f.Add("", "", "", "")
	f.Add("<@U123> mention", "Medium", "*bold* _italic_ ~strike~", "age_50_64")
	f.Add("hosp\x00\x01\x02", "lvl\nline", "note\ttab", "f\x00actor")
	f.Add(strings.Repeat("A", 5000), "High", strings.Repeat("x", 10000), "hypoxemia")

	f.Fuzz(func(t *testing.T, hospital, level, handoff, factor string) {
		rec := &triage.Record{
			ID:        "fuzz-id",
			Status:    triage.StatusAssigned,
			Level:     triage.Level(level),
			Factors:   []string{factor},
			Hospital:  hospital,
			Handoff:   handoff,
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}

		// Must not panic
		msg := buildMessage(rec)

		// Must produce valid JSON
		data, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("buildMessage produced non-marshalable output: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("buildMessage JSON does not round-trip: %v", err)
		}

		blocks, ok := decoded["blocks"].([]any)
		if !ok {
			t.Fatal("expected blocks array")
		}
		if len(blocks) != 6 {
			t.Fatalf("blocks count = %d, want 6", len(blocks))
		}

		text := handoffBlock(rec)["text"].(map[string]any)["text"].(string)
		if n := utf8.RuneCountInString(text); n > maxSectionLen {
			t.Fatalf("handoff text = %d characters, want <= %d", n, maxSectionLen)
		}
	})
}

func TestSend_NonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	n := New(srv.URL, log.Nop())
	err := n.Send(context.Background(), assignedRecord())
	if err == nil {
		t.Fatal("expected error on non-OK status")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %q, want to contain status code 500", err.Error())
	}
}
