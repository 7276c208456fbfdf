package genaiadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

const analyzePrompt = `Identify the organism in this photo.
Respond with a JSON object with exactly these keys:
"type": one of "animal", "bird", "plant", "insect";
"species": the common name of the species;
"description": one or two sentences about the species.`

// Analyzer implements ports.ImageAnalyzer with a Gemini vision model.
type Analyzer struct {
	client *genai.Client
	model  string
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(client *genai.Client, model string) *Analyzer {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Analyzer{client: client, model: model}
}

// Analyze asks the model what the photo shows.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, mimeType string) (*domain.Analysis, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(analyzePrompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: GenAI generate failed: %v", domain.ErrUnavailable, err)
	}
	return parseAnalysis(responseText(resp))
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// parseAnalysis decodes the model's JSON answer. Code fences are tolerated
// and unknown types become "animal".
func parseAnalysis(text string) (*domain.Analysis, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty analysis response", domain.ErrUnavailable)
	}

	var raw struct {
		Type        string `json:"type"`
		Species     string `json:"species"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed analysis response: %v", domain.ErrUnavailable, err)
	}

	category, err := domain.ParseCategory(raw.Type)
	if err != nil {
		category = domain.CategoryAnimal
	}
	species := strings.TrimSpace(raw.Species)
	if species == "" {
		return nil, fmt.Errorf("%w: analysis named no species", domain.ErrUnavailable)
	}
	return &domain.Analysis{
		Type:        category,
		Species:     species,
		Description: strings.TrimSpace(raw.Description),
	}, nil
}
