package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/mail.v2"
)

const defaultSubject = "Notification"

type Client struct {
	dialer *mail.Dialer
	from   string
}

func NewClient(smtpHost string, smtpPort int, username, password, from string, timeout time.Duration) *Client {
	dialer := mail.NewDialer(smtpHost, smtpPort, username, password)
	if timeout > 0 {
		dialer.Timeout = timeout
	}

	return &Client{
		dialer: dialer,
		from:   from,
	}
}

// Send delivers a plain text email. An empty subject falls back to a generic one.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.dialer.DialAndSend(c.message(to, subject, body)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

func (c *Client) message(to, subject, body string) *mail.Message {
	if subject == "" {
		subject = defaultSubject
	}

	message := mail.NewMessage()

	message.SetHeader("From", c.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)

	message.SetBody("text/plain", body)

	return message
}
