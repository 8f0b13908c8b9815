package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Mailer is the outbound email collaborator.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// HTTPMailer delivers through a Resend-style transactional email API.
type HTTPMailer struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

func NewHTTPMailer(apiURL, apiKey, from string, client *http.Client) *HTTPMailer {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPMailer{apiURL: apiURL, apiKey: apiKey, from: from, client: client}
}

type emailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (m *HTTPMailer) Send(ctx context.Context, to, subject, html string) error {
	body, err := json.Marshal(emailRequest{From: m.from, To: to, Subject: subject, HTML: html})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email API returned %d", resp.StatusCode)
	}
	return nil
}

// LogMailer stands in when no email API key is configured; it only logs.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.Logger.Info("Email delivery skipped (no API key)", zap.String("to", to), zap.String("subject", subject))
	return nil
}
