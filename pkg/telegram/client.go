// Package telegram sends notifications to Telegram chats through the Bot API.
//
// The bot runs in offline mode: it never polls for updates and only issues
// sendMessage calls, so it can share a token with an interactive bot.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Client represents a Telegram client used to send notifications.
type Client struct {
	bot *tele.Bot
}

// NewClient creates a Telegram client for the bot token. apiURL overrides the
// Bot API endpoint and may be empty.
func NewClient(token, apiURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:   token,
		URL:     apiURL,
		Offline: true,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Client{bot: bot}, nil
}

// Send posts the message to the chat id in to. A non-empty subject is sent as
// the first line.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chatID, err := strconv.ParseInt(strings.TrimSpace(to), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", to, err)
	}

	text := body
	if subject != "" {
		text = subject + "\n\n" + body
	}

	if _, err := c.bot.Send(tele.ChatID(chatID), text); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}
