package generator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/leadvett/backend/internal/models"
)

const (
	FallbackStrength = "Form submitted with information"
	FallbackRisk     = "AI analysis unavailable - manual review recommended"
	FallbackOutreach = "Thanks for your interest. Let me review your submission and get back to you shortly."
)

// NarrativeResult is either generated by the model or the deterministic fallback.
// Source tells which; FallbackReason is set only for fallbacks.
type NarrativeResult struct {
	Source         models.NarrativeSource
	Strengths      []string
	Risks          []string
	OutreachScript string
	Summary        string
	FallbackReason string
	PromptTokens   int
	OutputTokens   int
}

func (r NarrativeResult) IsFallback() bool {
	return r.Source == models.NarrativeFallback
}

// Generated wraps a parsed model response.
func Generated(n *GeneratedNarrative, resp *LLMResponse) NarrativeResult {
	return NarrativeResult{
		Source:         models.NarrativeGenerated,
		Strengths:      n.Strengths,
		Risks:          n.Risks,
		OutreachScript: n.DMScript,
		Summary:        n.Summary,
		PromptTokens:   resp.PromptTokens,
		OutputTokens:   resp.OutputTokens,
	}
}

// Fallback builds the rule-derived narrative used whenever generation fails.
func Fallback(badge models.Badge, reason string) NarrativeResult {
	return NarrativeResult{
		Source:         models.NarrativeFallback,
		Strengths:      []string{FallbackStrength},
		Risks:          []string{FallbackRisk},
		OutreachScript: FallbackOutreach,
		Summary:        fmt.Sprintf("%s lead based on rule engine evaluation", badge),
		FallbackReason: reason,
	}
}

// Narrator makes at most one generation request per lead and never fails: any
// error becomes a Fallback result.
type Narrator struct {
	llm     LLMClient
	timeout time.Duration
}

func NewNarrator(llm LLMClient, timeout time.Duration) *Narrator {
	return &Narrator{llm: llm, timeout: timeout}
}

func (n *Narrator) Narrate(ctx context.Context, in NarrativeInput) NarrativeResult {
	if n == nil || n.llm == nil {
		return Fallback(in.Badge, "narrative generator not configured")
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	resp, err := n.llm.Generate(ctx, NarrativeSystemPrompt(), BuildNarrativePrompt(in))
	if err != nil {
		log.Printf("WARN: narrative generation failed, using fallback: %v", err)
		return Fallback(in.Badge, fmt.Sprintf("generate: %v", err))
	}

	parsed, err := ParseNarrative(resp.Content, in.Badge)
	if err != nil {
		log.Printf("WARN: narrative response rejected, using fallback: %v", err)
		return Fallback(in.Badge, fmt.Sprintf("parse: %v", err))
	}

	return Generated(parsed, resp)
}
