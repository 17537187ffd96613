package generator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leadvett/backend/internal/models"
)

type fakeLLM struct {
	content string
	err     error
	delay   time.Duration
	calls   atomic.Int32
	lastSys string
	lastMsg string
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	f.calls.Add(1)
	f.lastSys, f.lastMsg = systemPrompt, userPrompt
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &LLMResponse{Content: f.content, PromptTokens: 10, OutputTokens: 20}, nil
}

func TestNarrate_Generated(t *testing.T) {
	llm := &fakeLLM{content: validNarrative}
	in := sampleInput()

	res := NewNarrator(llm, time.Second).Narrate(context.Background(), in)

	if res.IsFallback() {
		t.Fatalf("expected generated narrative, got fallback: %s", res.FallbackReason)
	}
	if res.Source != models.NarrativeGenerated {
		t.Errorf("Source = %q, want %q", res.Source, models.NarrativeGenerated)
	}
	if res.PromptTokens != 10 || res.OutputTokens != 20 {
		t.Errorf("tokens = %d/%d, want 10/20", res.PromptTokens, res.OutputTokens)
	}
	if llm.calls.Load() != 1 {
		t.Errorf("expected exactly one call, got %d", llm.calls.Load())
	}
	if !strings.Contains(llm.lastMsg, "- Badge: Bronze") {
		t.Error("prompt should carry the computed badge")
	}
}

func TestNarrate_FallbackOnError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rate limited")}
	in := sampleInput()

	res := NewNarrator(llm, time.Second).Narrate(context.Background(), in)

	if !res.IsFallback() {
		t.Fatal("expected fallback narrative")
	}
	if len(res.Strengths) != 1 || res.Strengths[0] != "Form submitted with information" {
		t.Errorf("Strengths = %v", res.Strengths)
	}
	if len(res.Risks) != 1 || res.Risks[0] != "AI analysis unavailable - manual review recommended" {
		t.Errorf("Risks = %v", res.Risks)
	}
	if res.Summary != "Bronze lead based on rule engine evaluation" {
		t.Errorf("Summary = %q", res.Summary)
	}
	if res.OutreachScript != FallbackOutreach {
		t.Errorf("OutreachScript = %q", res.OutreachScript)
	}
	if !strings.Contains(res.FallbackReason, "rate limited") {
		t.Errorf("FallbackReason = %q", res.FallbackReason)
	}
	if llm.calls.Load() != 1 {
		t.Errorf("expected no retry, got %d calls", llm.calls.Load())
	}
}

func TestNarrate_FallbackOnUnparsableResponse(t *testing.T) {
	tests := []string{
		"",
		"Sorry, I can't do that.",
		`{"strengths": []}`,
		strings.Replace(validNarrative, `"summary"`, `"badge": "Gold", "summary"`, 1),
	}
	for _, content := range tests {
		res := NewNarrator(&fakeLLM{content: content}, time.Second).Narrate(context.Background(), sampleInput())
		if !res.IsFallback() {
			t.Errorf("content %q: expected fallback", content)
		}
	}
}

func TestNarrate_TimeoutFallsBack(t *testing.T) {
	llm := &fakeLLM{content: validNarrative, delay: 500 * time.Millisecond}

	start := time.Now()
	res := NewNarrator(llm, 20*time.Millisecond).Narrate(context.Background(), sampleInput())

	if !res.IsFallback() {
		t.Fatal("expected fallback after timeout")
	}
	if !strings.Contains(res.FallbackReason, context.DeadlineExceeded.Error()) {
		t.Errorf("FallbackReason = %q", res.FallbackReason)
	}
	if time.Since(start) > 400*time.Millisecond {
		t.Error("narrator did not honor its timeout")
	}
}

func TestNarrate_NilClient(t *testing.T) {
	res := NewNarrator(nil, time.Second).Narrate(context.Background(), sampleInput())
	if !res.IsFallback() {
		t.Fatal("expected fallback without a client")
	}
}

func TestMockClient_ProducesValidNarrative(t *testing.T) {
	resp, err := NewMockClient().Generate(context.Background(), "", "")
	if err != nil {
		t.Fatalf("mock Generate: %v", err)
	}
	if _, err := ParseNarrative(resp.Content, models.BadgeSilver); err != nil {
		t.Fatalf("mock narrative should parse, got: %v", err)
	}
}
