package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5"

// Anthropic describes images with the Messages API.
type Anthropic struct {
	client    anthropic.Client
	key       string
	model     string
	maxTokens int
}

func NewAnthropic(cfg ProviderConfig) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		key:       cfg.APIKey,
		model:     model,
		maxTokens: cfg.maxTokens(),
	}
}

func (p *Anthropic) Name() string     { return "Anthropic" }
func (p *Anthropic) KeyVar() string   { return EnvAnthropicKey }
func (p *Anthropic) Configured() bool { return strings.TrimSpace(p.key) != "" }

func (p *Anthropic) Describe(ctx context.Context, dataURL string) (string, error) {
	mediaType, payload, err := splitDataURL(dataURL)
	if err != nil {
		return "", &UpstreamError{Status: http.StatusBadRequest, Message: err.Error(), Type: "invalid_request_error"}
	}
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaType, payload),
				anthropic.NewTextBlock(Prompt),
			),
		},
	})
	if err != nil {
		return "", anthropicError(err)
	}
	var sb strings.Builder
	found := false
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
			found = true
		}
	}
	if !found {
		return "", &FormatError{Provider: p.Name(), Raw: json.RawMessage(resp.RawJSON())}
	}
	return sb.String(), nil
}

func anthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := apiErr.Error()
	typ := "api_error"
	if json.Unmarshal([]byte(apiErr.RawJSON()), &body) == nil && body.Error.Message != "" {
		msg = body.Error.Message
		typ = body.Error.Type
	}
	return &UpstreamError{Status: apiErr.StatusCode, Message: msg, Type: typ}
}
