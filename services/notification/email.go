package notification

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"classbook/models"
)

// EmailConfig holds SMTP settings. An empty Host disables the channel.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailChannel sends plain-text mail through an SMTP relay.
type EmailChannel struct {
	cfg      EmailConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil
	}
	return &EmailChannel{cfg: cfg, sendMail: smtp.SendMail}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(_ context.Context, msg models.Message) error {
	if msg.Email == "" {
		return ErrNoRecipient
	}

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	if err := c.sendMail(addr, auth, c.cfg.From, []string{msg.Email}, c.compose(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.Email, err)
	}
	return nil
}

func (c *EmailChannel) compose(msg models.Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", c.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.Email)
	fmt.Fprintf(&buf, "Subject: %s\r\n", sanitizeHeader(msg.Title))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.Body)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// header values must not carry line breaks
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
