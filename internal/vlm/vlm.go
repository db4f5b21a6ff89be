// Package vlm provides the VLM collaborator: a single Caption(imageBase64)
// call against an OpenAI- or Ollama-compatible chat-completions endpoint.
package vlm

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrel-data/docreader/internal/clients/openai"
	"github.com/kestrel-data/docreader/internal/config"
)

// InterfaceType names the supported captioning backends.
type InterfaceType string

const (
	InterfaceOpenAI InterfaceType = "openai"
	InterfaceOllama InterfaceType = "ollama"
)

const requestTimeout = 30 * time.Second

const captionPrompt = "Describe this image in one or two concise sentences."

// VLM captions an image. Failure (timeout, non-2xx, malformed response)
// returns an empty string together with a non-nil error; the ingestion
// service logs it and leaves the caption empty, so captioning never blocks
// the rest of the response.
type VLM interface {
	Caption(ctx context.Context, imageBase64 string) (string, error)
}

// Config selects the backend and its chat-completions endpoint. openai and
// ollama share the same request/response envelope closely enough to run
// through the same client with a different base URL and model.
type Config struct {
	InterfaceType InterfaceType
	BaseURL       string
	APIKey        string
	Model         string
}

// New constructs the VLM client selected by cfg.InterfaceType, defaulting
// to openai when unset.
func New(cfg Config) VLM {
	model := cfg.Model
	switch cfg.InterfaceType {
	case InterfaceOllama:
		if model == "" {
			model = "llava"
		}
	default:
		if model == "" {
			model = "gpt-4o-mini"
		}
	}

	client := openai.NewClient(config.ServiceConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   model,
	})
	return &chatCaptioner{client: client, model: model}
}

type chatCaptioner struct {
	client *openai.Client
	model  string
}

func (c *chatCaptioner) Caption(ctx context.Context, imageBase64 string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	messages := []openai.Message{
		{
			Role: "user",
			Content: []openai.ContentPart{
				{Type: "text", Text: captionPrompt},
				{Type: "image_url", ImageURL: &openai.ImageURL{URL: "data:image/png;base64," + imageBase64}},
			},
		},
	}

	resp, err := c.client.CreateChatCompletionWithDefaults(ctx, c.model, messages)
	if err != nil {
		return "", fmt.Errorf("vlm: caption: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	text, _ := resp.Choices[0].Message.Content.(string)
	return text, nil
}
