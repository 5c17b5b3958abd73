package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextwatch/engine/internal/models"
)

// Fallback explanations when the LLM is unavailable or returns unusable output.
const (
	genericExplanation = "Similar to your taste based on vector similarity"
	defaultExplanation = "Matches your taste based on similarity analysis"
)

// CompletionClient generates a completion for a prompt.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// llmExplanations mirrors the JSON shape the prompt asks the model for.
type llmExplanations struct {
	Recommendations []struct {
		Title          string `json:"title"`
		WhyRecommended string `json:"whyRecommended"`
	} `json:"recommendations"`
}

// Explainer attaches per-candidate natural-language explanations using an
// LLM. The LLM never re-ranks: candidate order is fixed by retrieval, and
// explanations align with candidates by index. Every failure mode degrades to
// a generic explanation; the explainer itself never fails a request.
type Explainer struct {
	llm    CompletionClient
	logger *slog.Logger
}

// NewExplainer creates an explainer. A nil llm produces generic explanations
// for every candidate.
func NewExplainer(llm CompletionClient, logger *slog.Logger) *Explainer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Explainer{llm: llm, logger: logger}
}

// ExplainAll returns one explanation per candidate, aligned by index.
func (e *Explainer) ExplainAll(ctx context.Context, refs, candidates []models.Movie) []string {
	explanations := make([]string, len(candidates))
	for i := range explanations {
		explanations[i] = genericExplanation
	}

	if e.llm == nil || len(candidates) == 0 {
		return explanations
	}

	raw, err := e.llm.Complete(ctx, buildExplanationPrompt(refs, candidates))
	if err != nil {
		e.logger.Error("LLM explanation failed, falling back to generic explanations", "error", err)

		return explanations
	}

	var parsed llmExplanations
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		e.logger.Error("failed to parse LLM response, falling back to generic explanations", "error", err)

		return explanations
	}

	if len(parsed.Recommendations) == 0 {
		e.logger.Warn("LLM returned no explanations, falling back to generic explanations")

		return explanations
	}

	for i := range candidates {
		if i >= len(parsed.Recommendations) {
			explanations[i] = defaultExplanation

			continue
		}

		if text := strings.TrimSpace(parsed.Recommendations[i].WhyRecommended); text != "" {
			explanations[i] = text
		} else {
			explanations[i] = defaultExplanation
		}
	}

	return explanations
}

// buildExplanationPrompt lists the user's movies and the pre-selected
// candidates and asks for a short explanation per candidate, as pure JSON.
func buildExplanationPrompt(refs, candidates []models.Movie) string {
	var prompt strings.Builder

	prompt.WriteString("You are a movie recommendation expert. The user loves these movies:\n\n")

	for i := range refs {
		prompt.WriteString(fmt.Sprintf("- %s (%s, Rating: %.1f)\n",
			refs[i].Title, refs[i].Genres, ratingOrZero(&refs[i])))
	}

	prompt.WriteString("\nWe have pre-selected these movies using vector similarity. For EACH movie below, ")
	prompt.WriteString("provide a brief, natural explanation (1-2 sentences) of WHY it matches their taste.\n\n")
	prompt.WriteString("IMPORTANT: Do NOT re-rank or exclude movies. Provide explanations for ALL movies.\n\n")

	for i := range candidates {
		prompt.WriteString(fmt.Sprintf("%d. %s (%s, Rating: %.1f)\n",
			i+1, candidates[i].Title, candidates[i].Genres, ratingOrZero(&candidates[i])))
		prompt.WriteString(fmt.Sprintf("   %s\n\n", overviewSnippet(&candidates[i], 200)))
	}

	prompt.WriteString(`Return a JSON response with recommendations array:
{
  "recommendations": [
    {"title": "Movie 1 Title", "whyRecommended": "Explanation"},
    {"title": "Movie 2 Title", "whyRecommended": "Explanation"}
  ]
}

IMPORTANT: Return ONLY the JSON object with no other text.
`)

	return prompt.String()
}

func ratingOrZero(movie *models.Movie) float64 {
	if movie.Rating == nil {
		return 0
	}

	return *movie.Rating
}

func overviewSnippet(movie *models.Movie, maxLen int) string {
	if movie.Overview == nil {
		return ""
	}

	overview := *movie.Overview
	if len(overview) > maxLen {
		return overview[:maxLen]
	}

	return overview
}

// stripCodeFence unwraps a ```json fenced block if the model ignored the
// plain-JSON instruction.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)

	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
