package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/manifest-network/upgrade-helper/internal/failure"
)

const chatCompletionsPath = "/v1/chat/completions"

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     Model     `json:"model"`
	MaxTokens int       `json:"max_tokens,omitempty"`
	Messages  []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Client sends single-message chat completions.
type Client struct {
	http      *resty.Client
	apiKey    string
	maxTokens int
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, maxTokens int) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetAuthToken(apiKey),
		apiKey:    apiKey,
		maxTokens: maxTokens,
	}
}

// Complete sends prompt as a user message and returns the first choice.
// An empty string with a nil error means the model answered with nothing.
func (c *Client) Complete(ctx context.Context, prompt string, model Model) (string, error) {
	if c.apiKey == "" {
		return "", failure.Fatal(errors.New("no API key configured for the completion API"))
	}

	var body chatResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:     model,
			MaxTokens: c.maxTokens,
			Messages:  []message{{Role: "user", Content: prompt}},
		}).
		SetResult(&body).
		SetError(&apiErr).
		Post(chatCompletionsPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", failure.Transient(fmt.Errorf("completion request failed: %w", err))
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		return "", failure.FromHTTPStatus(resp.StatusCode(), fmt.Errorf("completion API returned %d: %s", resp.StatusCode(), msg))
	}

	if len(body.Choices) == 0 {
		return "", nil
	}
	return body.Choices[0].Message.Content, nil
}
