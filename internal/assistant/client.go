// Package assistant answers visitor questions on the public website by
// proxying them to the OpenRouter chat completion API.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openRouterURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel    = "openai/gpt-oss-20b:free"
	httpCallTimeout = 30 * time.Second

	// fallbackAnswer covers replies with no usable completion.
	fallbackAnswer = "I'm sorry, I couldn't understand that."
)

// systemInstruction pins the model to the school's admissions context. The
// listed paths are the only routes that exist on the public site, so the
// model must not invent others.
const systemInstruction = "You are a friendly assistant for Omkar International School, answering " +
	"questions from prospective parents and students. When a page on the website is relevant, " +
	"link it in markdown as [Page Name](/path), using only these exact paths: " +
	"/about/founder-trustee, /about/principal, /about/mission-vision, /academics/foundational-years, " +
	"/academics/primary, /academics/middle-school, /academics/secondary, /academics/isc, " +
	"/infrastructure, /awards, /admission, /testimonials, /contact. " +
	"Format answers with markdown (bold text, lists) and put links at the end. Keep replies " +
	"concise, polite, and factual. When unsure, point the visitor at the [Contact Us](/contact) " +
	"page instead of guessing. Never invent information."

// Client talks to the OpenRouter completion endpoint.
type Client struct {
	apiKey   string
	model    string
	siteURL  string
	siteName string
	sendURL  string
	http     *http.Client
}

// NewClient builds an assistant client. siteURL and siteName are optional
// attribution headers for OpenRouter rankings.
func NewClient(apiKey, model, siteURL, siteName string) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:   apiKey,
		model:    model,
		siteURL:  siteURL,
		siteName: siteName,
		sendURL:  openRouterURL,
		http:     &http.Client{Timeout: httpCallTimeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Ask sends one visitor question and returns the model's answer.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: question},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.sendURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, detail)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return fallbackAnswer, nil
	}
	return parsed.Choices[0].Message.Content, nil
}
