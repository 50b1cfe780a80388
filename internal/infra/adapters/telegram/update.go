package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-storefront/internal/domain/model"
)

// EventFromUpdate maps a Telegram update to an inbound event. The chat id is
// the user identity. Updates other than text messages and button presses are
// skipped.
func EventFromUpdate(up tgbotapi.Update) (model.Event, bool) {
	switch {
	case up.CallbackQuery != nil:
		q := up.CallbackQuery
		ev := model.Event{
			Kind:       model.EventCallback,
			Payload:    strings.TrimSpace(q.Data),
			CallbackID: q.ID,
		}
		if q.From != nil {
			ev.UserName = displayName(q.From)
			ev.ChatID = q.From.ID
		}
		if q.Message != nil && q.Message.Chat != nil {
			ev.ChatID = q.Message.Chat.ID
			ev.Origin = &model.MessageRef{ChatID: q.Message.Chat.ID, MessageID: q.Message.MessageID}
		}
		if ev.ChatID == 0 {
			return model.Event{}, false
		}
		ev.UserID = strconv.FormatInt(ev.ChatID, 10)
		return ev, true

	case up.Message != nil && up.Message.Chat != nil && up.Message.Text != "":
		m := up.Message
		payload := strings.TrimSpace(m.Text)
		// "/start" may carry a deep-link argument or a bot mention.
		if m.IsCommand() && m.Command() == "start" {
			payload = model.ResetCommand
		}
		ev := model.Event{
			Kind:    model.EventText,
			UserID:  strconv.FormatInt(m.Chat.ID, 10),
			ChatID:  m.Chat.ID,
			Payload: payload,
		}
		if m.From != nil {
			ev.UserName = displayName(m.From)
		}
		return ev, true
	}
	return model.Event{}, false
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName + " " + u.LastName))
	if name == "" {
		name = u.UserName
	}
	return name
}
