// Package gemini implements candidate evaluation on the Google GenAI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"talentlens/internal/retry"
)

const (
	defaultModel = "gemini-2.5-flash"

	defaultMaxTokens = 8192
)

// contentCaller is the slice of the genai client the generator needs.
type contentCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client to provide simple prompt-based
// interactions. An empty response is treated as retryable: the API sometimes
// returns a candidate with no text parts under load.
type Generator struct {
	caller    contentCaller
	modelName string
	policy    retry.Policy
	logger    *zap.Logger
}

// GenRequest is one text-generation call.
type GenRequest struct {
	System      string
	User        string
	MaxTokens   int32
	Temperature float32
	// JSONMode asks the API for an application/json response.
	JSONMode bool
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{
		caller:    client.Models,
		modelName: model,
		policy:    retry.DefaultPolicy,
		logger:    logger,
	}, nil
}

// Generate sends the request to Gemini and returns the combined textual
// response, retrying transient failures per the generator's policy.
func (g *Generator) Generate(ctx context.Context, req *GenRequest) (string, error) {
	if g == nil || g.caller == nil {
		return "", errors.New("gemini generator is not initialized")
	}
	if strings.TrimSpace(req.User) == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.JSONMode {
		config.ResponseMIMEType = "application/json"
	}
	config.MaxOutputTokens = req.MaxTokens
	if config.MaxOutputTokens <= 0 {
		config.MaxOutputTokens = defaultMaxTokens
	}
	config.Temperature = genai.Ptr(req.Temperature)

	return g.call(ctx, "gemini generate", genai.Text(req.User), config)
}

// AnalyzeImage sends an image with an instruction and returns the textual
// assessment.
func (g *Generator) AnalyzeImage(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	if g == nil || g.caller == nil {
		return "", errors.New("gemini generator is not initialized")
	}
	if len(data) == 0 {
		return "", errors.New("image data must not be empty")
	}
	if mimeType = strings.TrimSpace(mimeType); mimeType == "" {
		mimeType = "image/png"
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}}

	config := &genai.GenerateContentConfig{MaxOutputTokens: defaultMaxTokens}

	return g.call(ctx, "gemini analyze image", contents, config)
}

func (g *Generator) call(ctx context.Context, name string, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	var output string

	err := g.policy.Do(ctx, g.logger, name, func() error {
		resp, err := g.caller.GenerateContent(ctx, g.modelName, contents, config)
		if err != nil {
			return fmt.Errorf("generate content: %w", err)
		}

		output = collectText(resp)
		if output == "" {
			return errors.New("gemini api returned empty response")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return output, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
