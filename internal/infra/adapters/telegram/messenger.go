package telegram

import (
	"context"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*RealTelegramBotAdapter)(nil)

const maxCaption = 1024

func (r *RealTelegramBotAdapter) SendText(ctx context.Context, chatID int64, text string, kb adapter.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markup, ok := inlineMarkup(kb); ok {
		msg.ReplyMarkup = markup
	}
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) SendPhoto(ctx context.Context, chatID int64, imageURL, caption string, kb adapter.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(imageURL))
	photo.Caption = truncate(caption, maxCaption)
	if markup, ok := inlineMarkup(kb); ok {
		photo.ReplyMarkup = markup
	}
	_, err := r.bot.Send(photo)
	return err
}

func (r *RealTelegramBotAdapter) DeleteMessage(ctx context.Context, ref model.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.bot.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
	return err
}

func (r *RealTelegramBotAdapter) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// inlineMarkup converts rows of choices into an inline keyboard. Empty rows
// are skipped; a keyboard with no buttons yields ok=false.
func inlineMarkup(kb adapter.Keyboard) (tgbotapi.InlineKeyboardMarkup, bool) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, c := range row {
			label := strings.TrimSpace(c.Label)
			if label == "" {
				label = "•"
			}
			data := c.Data
			if data == "" {
				data = label
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, data))
		}
		rows = append(rows, buttons)
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
