package notifier

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/errcodes"
)

// TelegramBot is an optional second sink delivering the same alerts to a
// fixed operator chat.
type TelegramBot struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegramBot(token string, chatID int64) (*TelegramBot, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &TelegramBot{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (b *TelegramBot) Send(ctx context.Context, event entity.Event) error {
	msg := tu.Message(
		tu.ID(b.chatID),
		renderEventText(event),
	).WithParseMode(telego.ModeHTML)

	if _, err := b.bot.SendMessage(ctx, msg); err != nil {
		return domain.WrapError(err, errcodes.NotifyFailure, "failed to send telegram message")
	}

	return nil
}

// SendText sends a plain text message, used for the startup check.
func (b *TelegramBot) SendText(ctx context.Context, text string) error {
	msg := tu.Message(tu.ID(b.chatID), text)

	_, err := b.bot.SendMessage(ctx, msg)
	return err
}

func renderEventText(event entity.Event) string {
	if event.Kind == entity.EventSaleEstimate {
		return fmt.Sprintf(
			"📉 <b>Estimated Sale</b>\n\n"+
				"📦 <b>Item:</b> %s\n"+
				"🏪 <b>Seller:</b> %s\n"+
				"📊 <b>Stock:</b> %d → %d\n"+
				"💰 <b>Units:</b> %d",
			event.ItemID,
			event.HolderName,
			event.StockBefore,
			event.StockAfter,
			event.UnitsEstimated,
		)
	}

	verb := "❌ <b>BuyBox LOST</b>"
	if event.IsGain {
		verb = "✅ <b>BuyBox GAINED</b>"
	}

	text := fmt.Sprintf(
		"%s\n\n"+
			"📦 <b>Item:</b> %s\n"+
			"⬅️ <b>Was:</b> %s\n"+
			"➡️ <b>Now:</b> %s",
		verb,
		event.ItemID,
		holderLabel(event.OldHolderName, event.OldHolderID),
		holderLabel(event.NewHolderName, event.NewHolderID),
	)

	if event.Price != nil {
		text += fmt.Sprintf("\n💰 <b>Price:</b> %s %.2f", event.Currency, *event.Price)
	}

	return text
}
