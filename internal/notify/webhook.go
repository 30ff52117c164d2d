package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// defaultClient has no timeout of its own; every request carries a deadline.
var defaultClient = &http.Client{}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "occtl")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// WebhookSink posts {"title", "body", "content"} JSON. content is the
// Discord-style rendering of title and body.
type WebhookSink struct {
	URL    string
	Client *http.Client
}

// NewWebhookSink returns nil when url is empty.
func NewWebhookSink(url string) Sink {
	if url == "" {
		return nil
	}
	return &WebhookSink{URL: url, Client: defaultClient}
}

func (s *WebhookSink) Name() string { return "webhook" }

type webhookPayload struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Content string `json:"content"`
}

// Send implements Sink.
func (s *WebhookSink) Send(ctx context.Context, a Alert) error {
	return postJSON(ctx, s.Client, s.URL, webhookPayload{
		Title:   a.Title,
		Body:    a.Body,
		Content: fmt.Sprintf("**%s**\n%s", a.Title, a.Body),
	})
}

// AlertRouterSink posts to an alert router that groups alerts by fingerprint.
type AlertRouterSink struct {
	URL    string
	Client *http.Client
}

// NewAlertRouterSink returns nil when url is empty.
func NewAlertRouterSink(url string) Sink {
	if url == "" {
		return nil
	}
	return &AlertRouterSink{URL: url, Client: defaultClient}
}

func (s *AlertRouterSink) Name() string { return "alert_router" }

type alertRouterPayload struct {
	ServiceName string `json:"service_name"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
	HostName    string `json:"host_name"`
	Message     string `json:"message"`
	Fingerprint string `json:"fingerprint"`
}

// Send implements Sink.
func (s *AlertRouterSink) Send(ctx context.Context, a Alert) error {
	return postJSON(ctx, s.Client, s.URL, alertRouterPayload{
		ServiceName: "oc-watch:" + a.Session,
		Severity:    a.Severity,
		Status:      a.Status,
		HostName:    a.Host,
		Message:     a.Body,
		Fingerprint: a.Fingerprint,
	})
}
