package application

import (
	"context"

	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/usecase"
)

// EventProcessor is the slice of *usecase.StateMachine the facade needs.
type EventProcessor interface {
	Process(ctx context.Context, ev model.Event) usecase.Result
}
