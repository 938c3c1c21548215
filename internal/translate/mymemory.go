package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const myMemoryEndpoint = "https://api.mymemory.translated.net/get"

// MyMemory is the translated.net free API. It needs an explicit source language.
type MyMemory struct {
	client  *http.Client
	baseURL string
}

func NewMyMemory(client *http.Client) *MyMemory {
	return &MyMemory{client: client, baseURL: myMemoryEndpoint}
}

func (m *MyMemory) Name() string { return "mymemory" }

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  any    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
}

func (m *MyMemory) Translate(ctx context.Context, text, from, to string) (string, error) {
	if from == "" || from == "auto" {
		from = "en"
	}
	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", from+"|"+to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mymemory returned status: %d", resp.StatusCode)
	}

	var out myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	// The API reports quota and input errors with HTTP 200 and a status in the body.
	if status := fmt.Sprint(out.ResponseStatus); status != "200" && status != "<nil>" {
		return "", fmt.Errorf("mymemory status %s: %s", status, out.ResponseDetails)
	}

	text = strings.TrimSpace(out.ResponseData.TranslatedText)
	if text == "" {
		return "", fmt.Errorf("mymemory returned no text")
	}
	return text, nil
}
