package gemini

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("新しい"), genai.Text("モデル\n")}},
		}},
	}
	got, err := responseText(resp)
	if err != nil {
		t.Fatal(err)
	}
	if got != "新しいモデル" {
		t.Errorf("responseText = %q", got)
	}
}

func TestResponseTextEmpty(t *testing.T) {
	tests := []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
		{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}}}}},
	}
	for i, resp := range tests {
		if _, err := responseText(resp); err == nil {
			t.Errorf("case %d: expected an error", i)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt("OpenAI released a model.", "en", "ja")
	if !strings.Contains(p, "English news summary into natural Japanese") {
		t.Errorf("prompt = %q", p)
	}
	if !strings.HasSuffix(p, "OpenAI released a model.") {
		t.Errorf("prompt does not end with the text: %q", p)
	}
	if p := buildPrompt("x", "auto", "ja"); !strings.Contains(p, "the source language") {
		t.Errorf("auto prompt = %q", p)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "", ""); err == nil {
		t.Error("expected an error for an empty key")
	}
}

func TestCloseWithoutClient(t *testing.T) {
	var c io.Closer = &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}
