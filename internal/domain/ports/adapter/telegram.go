// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"telegram-storefront/internal/domain/model"
)

// Choice is one offered option: a visible label and the opaque selector sent back on press.
type Choice struct {
	Label string
	Data  string
}

// Keyboard is an ordered list of rows of choices.
type Keyboard [][]Choice

// Column lays out choices one per row, preserving order.
func Column(choices []Choice) Keyboard {
	kb := make(Keyboard, 0, len(choices))
	for _, c := range choices {
		kb = append(kb, []Choice{c})
	}
	return kb
}

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) error
	SendPhoto(ctx context.Context, chatID int64, imageURL, caption string, kb Keyboard) error
	DeleteMessage(ctx context.Context, ref model.MessageRef) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
