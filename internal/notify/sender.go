package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// WebhookSender posts events to the transactional email service's
// webhook endpoint.
type WebhookSender struct {
	url    string
	apiKey string
	client *http.Client
}

func NewWebhookSender(url, apiKey string) *WebhookSender {
	return &WebhookSender{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSender) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email service returned %d", resp.StatusCode)
	}
	return nil
}

// LogSender writes events to the process log. Used when no email
// webhook is configured (local development).
type LogSender struct{}

func (LogSender) Send(_ context.Context, event Event) error {
	log.Printf("[notify] %s to %s (%s)", event.Type, event.UserEmail, event.ID)
	return nil
}
