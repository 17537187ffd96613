package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/leadvett/backend/internal/models"
)

const (
	minStrengths = 3
	maxStrengths = 5
	minRisks     = 2
	maxRisks     = 4
)

var ErrNoJSON = errors.New("no JSON object in response")

// GeneratedNarrative is the JSON object the model is asked to return.
type GeneratedNarrative struct {
	Strengths []string `json:"strengths"`
	Risks     []string `json:"risks"`
	DMScript  string   `json:"dmScript"`
	Summary   string   `json:"summary"`
	// Badge is not requested, but models sometimes echo one back.
	Badge string `json:"badge,omitempty"`
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ParseNarrative extracts the first JSON object from a model response and checks
// it against the already computed badge.
func ParseNarrative(responseBody string, badge models.Badge) (*GeneratedNarrative, error) {
	raw, err := extractJSONObject(stripCodeFences(responseBody))
	if err != nil {
		return nil, err
	}

	var n GeneratedNarrative
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if err := validateNarrative(&n, badge); err != nil {
		return nil, err
	}
	return &n, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// extractJSONObject returns the span from the first '{' to the last '}'.
func extractJSONObject(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

func validateNarrative(n *GeneratedNarrative, badge models.Badge) error {
	var errs []string

	n.Strengths = compact(n.Strengths)
	n.Risks = compact(n.Risks)
	n.DMScript = strings.TrimSpace(n.DMScript)
	n.Summary = strings.TrimSpace(n.Summary)

	if len(n.Strengths) == 0 {
		errs = append(errs, "missing strengths")
	}
	if len(n.Risks) == 0 {
		errs = append(errs, "missing risks")
	}
	if n.DMScript == "" {
		errs = append(errs, "missing dmScript")
	}
	if n.Summary == "" {
		errs = append(errs, "missing summary")
	}
	if n.Badge != "" && !strings.EqualFold(n.Badge, string(badge)) {
		errs = append(errs, fmt.Sprintf("badge %q contradicts computed badge %q", n.Badge, badge))
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	// Out-of-range list sizes are tolerated.
	if len(n.Strengths) < minStrengths || len(n.Strengths) > maxStrengths {
		log.Printf("WARNING: narrative has %d strengths, expected %d-%d", len(n.Strengths), minStrengths, maxStrengths)
	}
	if len(n.Risks) < minRisks || len(n.Risks) > maxRisks {
		log.Printf("WARNING: narrative has %d risks, expected %d-%d", len(n.Risks), minRisks, maxRisks)
	}
	if len(n.Strengths) > maxStrengths {
		n.Strengths = n.Strengths[:maxStrengths]
	}
	if len(n.Risks) > maxRisks {
		n.Risks = n.Risks[:maxRisks]
	}
	return nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
