package model

import (
	"fmt"

	"telegram-storefront/internal/domain"
)

// State is the stage of one user's dialogue with the shop.
type State string

const (
	StateStart            State = "START"
	StateMenuShown        State = "MENU_SHOWN"
	StateDescriptionShown State = "DESCRIPTION_SHOWN"
	StateCartShown        State = "CART_SHOWN"
	StateAwaitingEmail    State = "AWAITING_EMAIL"
)

// AllStates returns every state in a stable order.
func AllStates() []State {
	return []State{
		StateStart,
		StateMenuShown,
		StateDescriptionShown,
		StateCartShown,
		StateAwaitingEmail,
	}
}

func (s State) String() string { return string(s) }

func (s State) Valid() bool {
	for _, known := range AllStates() {
		if s == known {
			return true
		}
	}
	return false
}

// ParseState converts a stored value back into a State.
func ParseState(v string) (State, error) {
	s := State(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownState, v)
	}
	return s, nil
}
