package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-storefront/internal/config"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/infra/metrics"
	red "telegram-storefront/internal/infra/redis"
	"telegram-storefront/internal/infra/worker"
	"telegram-storefront/internal/usecase"
)

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// EventHandler is satisfied by *application.BotFacade.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev model.Event) usecase.Result
}

// Limiter is satisfied by *redis.RateLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Notices supplies the texts the adapter answers on its own. Satisfied by
// *presentation.Formatter.
type Notices interface {
	RateLimited() string
}

// RealTelegramBotAdapter long-polls Telegram, turns updates into events for
// the facade and implements adapter.Messenger for the outbound side.
type RealTelegramBotAdapter struct {
	bot         botAPI
	handler     EventHandler
	pool        *worker.Pool
	mailbox     *worker.Mailbox
	rateLimiter Limiter
	rateLimit   int
	notices     Notices
	log         *zerolog.Logger

	cancelPolling context.CancelFunc
}

// NewRealTelegramBotAdapter connects to the Bot API. The handler is attached
// later with SetHandler because the facade needs the adapter as its messenger.
func NewRealTelegramBotAdapter(cfg *config.BotConfig, pool *worker.Pool, rateLimiter *red.RateLimiter, notices Notices, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if pool == nil {
		return nil, errors.New("worker pool is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("authorized on telegram")

	r := newAdapter(bot, pool, logger)
	r.notices = notices
	if rateLimiter != nil {
		r.rateLimiter = rateLimiter
		r.rateLimit = cfg.RateLimit
	}
	return r, nil
}

func newAdapter(bot botAPI, pool *worker.Pool, logger *zerolog.Logger) *RealTelegramBotAdapter {
	l := logger.With().Str("component", "TelegramAdapter").Logger()
	return &RealTelegramBotAdapter{bot: bot, pool: pool, mailbox: worker.NewMailbox(pool, 0, &l), log: &l}
}

func (r *RealTelegramBotAdapter) SetHandler(h EventHandler) { r.handler = h }

// StartPolling blocks until ctx is cancelled or StopPolling is called.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if r.handler == nil {
		return errors.New("telegram adapter has no event handler")
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel
	defer cancel()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	r.pool.Start(ctx)
	defer r.pool.Stop()

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			r.dispatch(ctx, up)
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) dispatch(ctx context.Context, up tgbotapi.Update) {
	ev, ok := EventFromUpdate(up)
	if !ok {
		return
	}
	metrics.IncTelegramUpdate(string(ev.Kind))

	// One user's events run one at a time and in order, and never take more
	// than one worker, so a stalled conversation cannot starve other users.
	err := r.mailbox.Submit(ctx, ev.UserID, func(ctx context.Context) error {
		if !r.allow(ctx, ev) {
			return nil
		}
		r.handler.HandleEvent(ctx, ev)
		return nil
	})
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", ev.UserID).Msg("update dropped")
	}
}

// allow applies the per-user budget. Limiter failures let the event through.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, ev model.Event) bool {
	if r.rateLimiter == nil || r.rateLimit <= 0 {
		return true
	}
	allowed, err := r.rateLimiter.Allow(ctx, red.UserEventKey(ev.UserID), r.rateLimit, time.Minute)
	if err != nil {
		r.log.Warn().Err(err).Msg("rate limit check failed")
		return true
	}
	if allowed {
		return true
	}
	metrics.IncRateLimitTriggered()
	if ev.IsCallback() {
		var notice string
		if r.notices != nil {
			notice = r.notices.RateLimited()
		}
		_ = r.AnswerCallback(ctx, ev.CallbackID, notice)
	}
	return false
}
