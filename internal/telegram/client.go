// Package telegram provides a client for sending alert notifications via the
// Telegram Bot API.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/whalewatch/engine/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     3,
		retryDelayBase: time.Second,
	}, nil
}

// SendAlert sends a notification for one emitted insider alert.
func (c *Client) SendAlert(alert *models.Alert) error {
	return c.sendMarkdownV2(formatAlert(alert))
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

func formatAlert(alert *models.Alert) string {
	var b strings.Builder
	b.WriteString("🚨 *Insider Trade Detected*\n\n")
	fmt.Fprintf(&b, "*%s*\n", escapeMarkdownV2(alert.MarketTitle))
	fmt.Fprintf(&b, "Outcome: %s %s\n",
		escapeMarkdownV2(alert.Side), escapeMarkdownV2(alert.Outcome))
	fmt.Fprintf(&b, "Score: %s\n", escapeMarkdownV2(fmt.Sprintf("%.1f", alert.InsiderScore)))
	fmt.Fprintf(&b, "Notional: %s\n", escapeMarkdownV2(fmt.Sprintf("$%.2f", alert.NotionalUSD)))
	fmt.Fprintf(&b, "Price: %s\n", escapeMarkdownV2(fmt.Sprintf("%.3f", alert.Price)))
	if alert.PriceImpact != nil {
		fmt.Fprintf(&b, "Price impact: %s\n",
			escapeMarkdownV2(fmt.Sprintf("%+.2f%%", *alert.PriceImpact)))
	}
	fmt.Fprintf(&b, "Wallet: `%s`\n", escapeMarkdownV2(alert.Wallet))
	if alert.EventSlug != "" && alert.MarketSlug != "" {
		fmt.Fprintf(&b, "[View market](https://polymarket.com/event/%s/%s)",
			escapeMarkdownV2URL(alert.EventSlug), escapeMarkdownV2URL(alert.MarketSlug))
	}
	return b.String()
}

// escapeMarkdownV2 escapes the characters Telegram's MarkdownV2 mode reserves.
func escapeMarkdownV2(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
		"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
		"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

// escapeMarkdownV2URL escapes only what MarkdownV2 reserves inside link URLs.
func escapeMarkdownV2URL(text string) string {
	replacer := strings.NewReplacer(")", "\\)", "\\", "\\\\")
	return replacer.Replace(text)
}
