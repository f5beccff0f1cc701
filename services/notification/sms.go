package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"classbook/models"
)

// SMSChannel posts text messages to an HTTP SMS gateway.
type SMSChannel struct {
	url    string
	token  string
	client *http.Client
}

type smsPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// NewSMSChannel returns nil when url is empty.
func NewSMSChannel(url, token string, client *http.Client) *SMSChannel {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SMSChannel{url: url, token: token, client: client}
}

func (c *SMSChannel) Name() string { return "sms" }

func (c *SMSChannel) Send(ctx context.Context, msg models.Message) error {
	if msg.Phone == "" {
		return ErrNoRecipient
	}

	body, err := json.Marshal(smsPayload{To: msg.Phone, Message: msg.Body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}
	return nil
}
