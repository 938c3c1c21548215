package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/awano27/daily-ai-news/internal/logger"
)

const googleEndpoint = "https://translate.googleapis.com/translate_a/single"

// Google uses the free public translate endpoint.
type Google struct {
	client  *http.Client
	baseURL string
}

func NewGoogle(client *http.Client) *Google {
	return &Google{client: client, baseURL: googleEndpoint}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Translate(ctx context.Context, text, from, to string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", from)
	params.Set("tl", to)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP error: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("failed to close response body", "err", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google translate returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	translation, err := parseGoogleTranslateResponse(body)
	if err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	return translation, nil
}

// parseGoogleTranslateResponse joins the sentence chunks of a gtx response,
// which is an array whose first element lists [translated, original, ...] pairs.
func parseGoogleTranslateResponse(body []byte) (string, error) {
	var response []any
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", errors.New("empty response from Google Translate")
	}

	chunks, ok := response[0].([]any)
	if !ok {
		return "", errors.New("unexpected response format")
	}

	var result strings.Builder
	for _, chunk := range chunks {
		if pair, ok := chunk.([]any); ok && len(pair) > 0 {
			if s, ok := pair[0].(string); ok {
				result.WriteString(s)
			}
		}
	}
	return result.String(), nil
}
