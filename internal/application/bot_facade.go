package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/infra/metrics"
	"telegram-storefront/internal/usecase"
)

// BotFacade is the single entry point the transport calls per inbound event.
// It applies the reporting policy: configuration errors crash in dev mode and
// raise an alert metric otherwise; every other failure stays with its event.
type BotFacade struct {
	conv EventProcessor
	dev  bool
	log  *zerolog.Logger
}

func NewBotFacade(conv EventProcessor, dev bool, logger *zerolog.Logger) *BotFacade {
	return &BotFacade{conv: conv, dev: dev, log: logger}
}

// HandleEvent never returns an error; the Result is for callers and tests.
func (b *BotFacade) HandleEvent(ctx context.Context, ev model.Event) (res usecase.Result) {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithUserID(ctx, ev.UserID)
	log := logging.With(ctx, b.log)

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if b.dev {
			panic(r)
		}
		res = usecase.Result{UserID: ev.UserID, Err: fmt.Errorf("panic while handling event: %v", r)}
		metrics.IncConversationEvent("unknown", res.Outcome())
		log.Error().Interface("panic", r).Str("kind", string(ev.Kind)).Msg("recovered from handler panic")
	}()

	res = b.conv.Process(ctx, ev)

	state := res.Previous.String()
	if state == "" {
		state = "unknown"
	}
	outcome := res.Outcome()
	metrics.IncConversationEvent(state, outcome)

	switch outcome {
	case usecase.OutcomeOK:
		log.Debug().Str("from", state).Str("to", res.Next.String()).Msg("event processed")
	case usecase.OutcomeRejected:
		log.Debug().Err(res.Err).Str("state", state).Msg("input rejected")
	case usecase.OutcomeBackendError:
		log.Warn().Err(res.Err).Str("state", state).Msg("commerce backend call failed; state kept")
	case usecase.OutcomeStoreError:
		log.Error().Err(res.Err).Str("state", state).Msg("state store unavailable; event dropped")
	case usecase.OutcomeConfigError:
		metrics.IncConfigError()
		log.Error().Err(res.Err).Str("state", state).Msg("transition configuration error")
		if b.dev {
			panic(res.Err)
		}
	default:
		log.Error().Err(res.Err).Str("state", state).Msg("event failed")
	}
	return res
}
