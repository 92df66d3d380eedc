package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"

	openAITimeout     = 60 * time.Second
	openAITemperature = 0.7
	maxErrorBody      = 4 << 10
)

// OpenAI calls the chat completions endpoint.
type OpenAI struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAI{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: openAITimeout},
	}
}

func (o *OpenAI) Name() string { return "openai:" + o.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (o *OpenAI) Reply(ctx context.Context, p Prompt) (string, error) {
	msgs := []chatMessage{{Role: "system", Content: systemPrompt}}
	if p.Persona != nil {
		msgs = append(msgs, chatMessage{Role: "system", Content: p.Persona.Line()})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: p.Message})
	return o.complete(ctx, msgs)
}

func (o *OpenAI) AnalyzeForm(ctx context.Context, img FormImage) (string, error) {
	text := img.Prompt
	if strings.TrimSpace(text) == "" {
		text = "How is my form?"
	}

	msgs := []chatMessage{{Role: "system", Content: formPrompt}}
	if img.Persona != nil {
		msgs = append(msgs, chatMessage{Role: "system", Content: img.Persona.Line()})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: []contentPart{
		{Type: "text", Text: text},
		{Type: "image_url", ImageURL: &imageURL{URL: img.ImageURL}},
	}})
	return o.complete(ctx, msgs)
}

func (o *OpenAI) complete(ctx context.Context, msgs []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       o.Model,
		Temperature: openAITemperature,
		Messages:    msgs,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: openai request: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("%w: openai returned %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode openai response: %w", domain.ErrUpstream, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%w: openai: %s", domain.ErrUpstream, out.Error.Message)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: openai returned no choices", domain.ErrUpstream)
	}
	return out.Choices[0].Message.Content, nil
}
