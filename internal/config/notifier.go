package config

import "time"

type Notifier struct {
	WebhookTimeout time.Duration `env:"NOTIFIER_WEBHOOK_TIMEOUT" envDefault:"10s"`

	// Optional Telegram sink. Disabled when the token is empty.
	TelegramToken  string `env:"NOTIFIER_TG_TOKEN" json:"-"`
	TelegramChatID int64  `env:"NOTIFIER_TG_CHAT_ID"`
}
