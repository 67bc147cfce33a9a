// Package whatsapp sends notification messages through a WhatsApp HTTP gateway.
package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultAPIURL is the whapi.cloud text-message endpoint.
const DefaultAPIURL = "https://gate.whapi.cloud/messages/text"

// Sender posts plain-text messages to a single configured recipient.
type Sender struct {
	client    *resty.Client
	logger    *slog.Logger
	apiURL    string
	recipient string
}

// message is the gateway request body.
type message struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// New creates a sender. apiURL defaults to the whapi.cloud gateway.
func New(apiURL, authToken, recipient string, logger *slog.Logger) *Sender {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetAuthToken(authToken).
		SetHeader("Content-Type", "application/json")
	return &Sender{
		client:    client,
		logger:    logger,
		apiURL:    apiURL,
		recipient: recipient,
	}
}

// Send posts one message to the configured recipient.
func (s *Sender) Send(ctx context.Context, text string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(message{To: s.recipient, Body: text}).
		Post(s.apiURL)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("whatsapp send: HTTP %d: %s", resp.StatusCode(), resp.String())
	}

	s.logger.Info("WhatsApp message sent", "recipient", s.recipient, "status", resp.StatusCode())
	return nil
}
