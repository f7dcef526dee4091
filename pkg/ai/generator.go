package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// VisionAnalyzer answers a text prompt about a single image.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// GeminiGenerator wraps GeminiClient with a fixed model for text generation.
type GeminiGenerator struct {
	client *GeminiClient
	model  string
}

// NewGeminiGenerator builds a Gemini-based TextGenerator.
func NewGeminiGenerator(client *GeminiClient, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model}
}

// GenerateText implements TextGenerator using Gemini.
func (g *GeminiGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return g.client.GenerateText(ctx, g.model, systemPrompt, userPrompt)
}

// GeminiVision wraps GeminiClient with a fixed model for image analysis.
type GeminiVision struct {
	client *GeminiClient
	model  string
}

// NewGeminiVision builds a Gemini-based VisionAnalyzer.
func NewGeminiVision(client *GeminiClient, model string) *GeminiVision {
	return &GeminiVision{client: client, model: model}
}

// AnalyzeImage implements VisionAnalyzer using Gemini.
func (g *GeminiVision) AnalyzeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	return g.client.AnalyzeImage(ctx, g.model, prompt, image, mimeType)
}
