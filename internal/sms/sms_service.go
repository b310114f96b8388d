package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Sender delivers short text messages to owners (login codes,
// appointment reminders)
type Sender interface {
	Send(ctx context.Context, phone, message string) error
	Enabled() bool
}

// HTTPGateway posts messages to a JSON SMS gateway. Any provider with a
// POST {to, from, message} endpoint and bearer-token auth works.
type HTTPGateway struct {
	APIURL   string
	APIKey   string
	SenderID string
	Client   *http.Client
}

// NewFromEnv builds a gateway from SMS_API_URL / SMS_API_KEY / SMS_SENDER.
// With no URL configured the gateway is disabled and messages are only
// logged, which is what local development wants.
func NewFromEnv() *HTTPGateway {
	return &HTTPGateway{
		APIURL:   os.Getenv("SMS_API_URL"),
		APIKey:   os.Getenv("SMS_API_KEY"),
		SenderID: os.Getenv("SMS_SENDER"),
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *HTTPGateway) Enabled() bool {
	return g.APIURL != ""
}

// Send delivers one message. Disabled gateways log and report success so
// callers behave the same with and without a provider configured.
func (g *HTTPGateway) Send(ctx context.Context, phone, message string) error {
	if !g.Enabled() {
		log.Printf("[SMS] Gateway disabled, would send to %s: %s", phone, message)
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"to":      phone,
		"from":    g.SenderID,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("failed to encode SMS payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("[SMS] Gateway returned %d for %s: %s", resp.StatusCode, phone, string(body))
		return fmt.Errorf("SMS gateway returned status %d", resp.StatusCode)
	}

	log.Printf("[SMS] Sent message to %s", phone)
	return nil
}
