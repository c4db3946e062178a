package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

const (
	DefaultModel   = "gemini-1.5-pro"
	maxIcebreakers = 3
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient writes opening lines for a fresh match.
type GeminiClient struct {
	client *genai.Client
	model  contentGenerator
	logger *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if modelName == "" {
		modelName = DefaultModel
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)

	return &GeminiClient{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

func (c *GeminiClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// GenerateIcebreakers asks the model for opening lines that a could send to b.
// When the model is unavailable or answers with nothing usable it falls back
// to lines built from the profiles themselves.
func (c *GeminiClient) GenerateIcebreakers(ctx context.Context, a, b *domain.Profile) ([]string, error) {
	prompt := fmt.Sprintf(`
		Generate 3 creative icebreaker messages for a dating app match.
		Profile 1: %s
		Profile 2: %s

		Task: Create 3 distinct opening lines that Profile 1 could send to Profile 2.
		Focus on shared places or interesting contrasts.
		Language: Russian.
		Output: JSON array of strings. Example: ["Hi...", "Hello..."]
	`, describe(a), describe(b))

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Warn("gemini unavailable, using fallback icebreakers", zap.Error(err))
		return FallbackIcebreakers(a, b), nil
	}

	lines, err := parseIcebreakers(responseText(resp))
	if err != nil {
		c.logger.Warn("unusable gemini answer, using fallback icebreakers", zap.Error(err))
		return FallbackIcebreakers(a, b), nil
	}
	return lines, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

func parseIcebreakers(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	// Models like to wrap JSON in a markdown fence.
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("no content generated")
	}

	var lines []string
	if err := json.Unmarshal([]byte(text), &lines); err != nil {
		lines = nil
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "[") && !strings.HasSuffix(line, "]") {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			return nil, fmt.Errorf("failed to parse icebreakers: %w", err)
		}
	}

	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no content generated")
	}
	if len(out) > maxIcebreakers {
		out = out[:maxIcebreakers]
	}
	return out, nil
}

func describe(p *domain.Profile) string {
	parts := []string{"status: " + string(p.Status)}
	if p.City != "" {
		parts = append(parts, "city: "+p.City)
	}
	if len(p.LocationPrefs) > 0 {
		parts = append(parts, "favourite places: "+strings.Join(p.LocationPrefs, ", "))
	}
	if a := p.Primary.Smoking; !a.IsNoPreference() {
		parts = append(parts, "smoking: "+string(a))
	}
	if a := p.Primary.Alcohol; !a.IsNoPreference() {
		parts = append(parts, "alcohol: "+string(a))
	}
	return strings.Join(parts, "; ")
}

// FallbackIcebreakers builds opening lines without the model.
func FallbackIcebreakers(a, b *domain.Profile) []string {
	var out []string
	if place, ok := sharedPlace(a, b); ok {
		out = append(out, fmt.Sprintf("Вижу, вы тоже любите %s. Какое место там ваше любимое?", place))
	}
	if a.City != "" && strings.EqualFold(a.City, b.City) {
		out = append(out, fmt.Sprintf("Мы оба из города %s! Куда бы вы посоветовали сходить?", b.City))
	}
	out = append(out,
		"Привет! Что вас сейчас больше всего вдохновляет?",
		"Какой идеальный вечер вы бы описали в трёх словах?",
	)
	if len(out) > maxIcebreakers {
		out = out[:maxIcebreakers]
	}
	return out
}

func sharedPlace(a, b *domain.Profile) (string, bool) {
	theirs := make(map[string]struct{}, len(b.LocationPrefs))
	for _, t := range b.LocationPrefs {
		theirs[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	for _, t := range a.LocationPrefs {
		norm := strings.ToLower(strings.TrimSpace(t))
		if _, ok := theirs[norm]; ok && norm != "" {
			return norm, true
		}
	}
	return "", false
}
