package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI describes images with the chat completions API.
type OpenAI struct {
	client    *openai.Client
	key       string
	model     string
	maxTokens int
}

func NewOpenAI(cfg ProviderConfig) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAI{
		client:    openai.NewClientWithConfig(oc),
		key:       cfg.APIKey,
		model:     model,
		maxTokens: cfg.maxTokens(),
	}
}

func (p *OpenAI) Name() string     { return "OpenAI" }
func (p *OpenAI) KeyVar() string   { return EnvOpenAIKey }
func (p *OpenAI) Configured() bool { return strings.TrimSpace(p.key) != "" }

func (p *OpenAI) Describe(ctx context.Context, dataURL string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: Prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
			},
		}},
	})
	if err != nil {
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &FormatError{Provider: p.Name(), Raw: resp}
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.HTTPStatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		return &UpstreamError{Status: status, Message: apiErr.Message, Type: apiErr.Type, Code: apiErr.Code}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := strings.TrimSpace(string(reqErr.Body))
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &UpstreamError{Status: reqErr.HTTPStatusCode, Message: msg, Type: "request_error"}
	}
	return err
}
