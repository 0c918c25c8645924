package classifier

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Gemini classifies with Google's Gemini API in JSON response mode.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Analyze(ctx context.Context, text string) (Analysis, error) {
	raw, err := g.generateJSON(ctx, buildAnalysisPrompt(text))
	if err != nil {
		return Analysis{}, err
	}
	return ParseAnalysis(raw)
}

func (g *Gemini) PredictPriority(ctx context.Context, text string) (string, error) {
	raw, err := g.generateJSON(ctx, buildPriorityPrompt(text))
	if err != nil {
		return "", err
	}
	return ParsePriority(raw)
}

func (g *Gemini) generateJSON(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", errors.New("GenAI returned an empty reply")
	}
	return text, nil
}
