package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// newGenAITransport builds the production transport on the genai SDK.
func newGenAITransport(ctx context.Context, cfg Config) (transport, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	modelName := cfg.Model
	return func(ctx context.Context, instruction string, payload Payload) (string, error) {
		parts := []*genai.Part{genai.NewPartFromText(instruction)}
		if len(payload.Data) > 0 {
			parts = append(parts, genai.NewPartFromBytes(payload.Data, payload.MIMEType))
		}
		contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

		resp, err := client.Models.GenerateContent(ctx, modelName, contents, nil)
		if err != nil {
			return "", err
		}
		return extractText(resp)
	}, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response: no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", errors.New("response blocked by safety filters")
	}
	if candidate.Content == nil {
		return "", errors.New("empty response: candidate has no content")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("response finished (%v) without text content", candidate.FinishReason)
	}
	return text, nil
}
