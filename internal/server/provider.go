package server

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables read by the server.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvProvider     = "SCRIBBLELENS_PROVIDER"
	EnvModel        = "SCRIBBLELENS_MODEL"
	EnvAccessToken  = "SCRIBBLELENS_ACCESS_TOKEN"
)

const defaultMaxTokens = 1000

// ProviderConfig is shared by every provider. Zero values pick the
// provider's defaults.
type ProviderConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

func (c ProviderConfig) maxTokens() int {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}

// Select builds the named provider. An empty APIKey is read from the
// provider's environment variable; the provider still starts without one
// and reports the missing key per request.
func Select(name string, cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "openai":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv(EnvOpenAIKey)
		}
		return NewOpenAI(cfg), nil
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv(EnvAnthropicKey)
		}
		return NewAnthropic(cfg), nil
	}
	return nil, fmt.Errorf("unknown provider %q (want openai or anthropic)", name)
}

// splitDataURL returns the media type and base64 payload of a data URL.
// A bare base64 string is treated as PNG.
func splitDataURL(u string) (mediaType, payload string, err error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "image/png", u, nil
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("malformed data URL")
	}
	mediaType, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", "", fmt.Errorf("data URL is not base64 encoded")
	}
	if mediaType == "" {
		mediaType = "image/png"
	}
	return mediaType, data, nil
}
