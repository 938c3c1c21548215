package translate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/awano27/daily-ai-news/internal/gemini"
)

// Engine names accepted by NewProvider.
const (
	EngineGoogle   = "google"
	EngineMyMemory = "mymemory"
	EngineGemini   = "gemini"
	EngineOpenAI   = "openai"
)

// Engines lists the accepted engine names.
var Engines = []string{EngineGoogle, EngineMyMemory, EngineGemini, EngineOpenAI}

type ProviderOptions struct {
	HTTPClient   *http.Client
	GeminiAPIKey string
	OpenAIAPIKey string
}

// NewProvider builds the named engine. An empty name returns (nil, nil).
func NewProvider(ctx context.Context, name string, opts ProviderOptions) (Provider, error) {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	switch name {
	case "":
		return nil, nil
	case EngineGoogle:
		return NewGoogle(client), nil
	case EngineMyMemory:
		return NewMyMemory(client), nil
	case EngineGemini:
		c, err := gemini.NewClient(ctx, opts.GeminiAPIKey, "")
		if err != nil {
			return nil, err
		}
		return c, nil
	case EngineOpenAI:
		o, err := NewOpenAI(opts.OpenAIAPIKey, "")
		if err != nil {
			return nil, err
		}
		return o, nil
	}
	return nil, fmt.Errorf("unknown translation engine %q", name)
}
