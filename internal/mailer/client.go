// Package mailer sends lead notification emails through the Mailjet HTTP API
// and keeps a delivery log.
package mailer

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
	mailjetSendURL  = "https://api.mailjet.com/v3.1/send"
	httpCallTimeout = 10 * time.Second
)

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Client is the production Sender using the Mailjet v3.1 send API.
type Client struct {
	apiKey    string
	apiSecret string
	fromEmail string
	sendURL   string
	http      *http.Client
}

func NewClient(apiKey, apiSecret, fromEmail string) *Client {
	return &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		fromEmail: fromEmail,
		sendURL:   mailjetSendURL,
		http:      &http.Client{Timeout: httpCallTimeout},
	}
}

type sendRequest struct {
	Messages []message `json:"Messages"`
}

type message struct {
	From     address   `json:"From"`
	To       []address `json:"To"`
	Subject  string    `json:"Subject"`
	HTMLPart string    `json:"HTMLPart"`
}

type address struct {
	Email string `json:"Email"`
}

func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	payload := sendRequest{
		Messages: []message{{
			From:     address{Email: c.fromEmail},
			To:       []address{{Email: to}},
			Subject:  subject,
			HTMLPart: htmlBody,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.sendURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail API returned status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
