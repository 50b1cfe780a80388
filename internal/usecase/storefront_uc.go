package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/presentation"
)

// Storefront holds the per-state handlers of the shop dialogue. The cart of a
// user is addressed by the user's identity.
type Storefront struct {
	commerce  adapter.Commerce
	messenger adapter.Messenger
	format    *presentation.Formatter
	validate  *validator.Validate
	newRef    func() string
	dev       bool
	log       *zerolog.Logger
}

func NewStorefront(commerce adapter.Commerce, messenger adapter.Messenger, formatter *presentation.Formatter, logger *zerolog.Logger) *Storefront {
	return &Storefront{
		commerce:  commerce,
		messenger: messenger,
		format:    formatter,
		validate:  validator.New(),
		newRef:    func() string { return ulid.Make().String() },
		log:       logger,
	}
}

// WithDevMode stops redacting customer emails in logs.
func (s *Storefront) WithDevMode(dev bool) *Storefront {
	s.dev = dev
	return s
}

// Handlers returns the handler for every conversation state.
func (s *Storefront) Handlers() Handlers {
	return Handlers{
		model.StateStart:            s.acknowledging(s.handleStart),
		model.StateMenuShown:        s.acknowledging(s.handleMenu),
		model.StateDescriptionShown: s.acknowledging(s.handleDescription),
		model.StateCartShown:        s.acknowledging(s.handleCart),
		model.StateAwaitingEmail:    s.acknowledging(s.handleEmail),
	}
}

func (s *Storefront) handleStart(ctx context.Context, ev model.Event) (model.State, error) {
	if ev.IsCallback() {
		if sel := presentation.ParseSelector(ev.Payload); sel.Kind == presentation.SelKindProduct {
			return s.showProduct(ctx, ev, sel.ProductID)
		}
	}
	return s.showCatalog(ctx, ev)
}

func (s *Storefront) handleMenu(ctx context.Context, ev model.Event) (model.State, error) {
	if !ev.IsCallback() {
		return s.showCatalog(ctx, ev)
	}
	sel := presentation.ParseSelector(ev.Payload)
	switch sel.Kind {
	case presentation.SelKindProduct:
		return s.showProduct(ctx, ev, sel.ProductID)
	case presentation.SelKindCart:
		return s.showCart(ctx, ev)
	default:
		return s.showCatalog(ctx, ev)
	}
}

func (s *Storefront) handleDescription(ctx context.Context, ev model.Event) (model.State, error) {
	if !ev.IsCallback() {
		return model.StateDescriptionShown, nil
	}
	sel := presentation.ParseSelector(ev.Payload)
	switch sel.Kind {
	case presentation.SelKindBack:
		s.dropOrigin(ctx, ev)
		return s.showCatalog(ctx, ev)
	case presentation.SelKindCart:
		return s.showCart(ctx, ev)
	case presentation.SelKindAdd:
		if err := s.commerce.AddToCart(ctx, ev.UserID, sel.ProductID, sel.Quantity); err != nil {
			return "", err
		}
		logging.With(ctx, s.log).Info().
			Str("product_id", sel.ProductID).
			Int("quantity", sel.Quantity).
			Msg("added to cart")
		return s.showProduct(ctx, ev, sel.ProductID)
	default:
		return model.StateDescriptionShown, nil
	}
}

func (s *Storefront) handleCart(ctx context.Context, ev model.Event) (model.State, error) {
	if !ev.IsCallback() {
		return s.showCart(ctx, ev)
	}
	sel := presentation.ParseSelector(ev.Payload)
	switch sel.Kind {
	case presentation.SelKindMenu:
		s.dropOrigin(ctx, ev)
		return s.showCatalog(ctx, ev)
	case presentation.SelKindRemove:
		if err := s.commerce.RemoveFromCart(ctx, ev.UserID, sel.ItemID); err != nil {
			return "", err
		}
		return s.showCart(ctx, ev)
	case presentation.SelKindPay:
		items, err := s.commerce.GetCartItems(ctx, ev.UserID)
		if err != nil {
			return "", err
		}
		if len(items) == 0 {
			return s.showCart(ctx, ev)
		}
		s.dropOrigin(ctx, ev)
		if err := s.messenger.SendText(ctx, ev.ChatID, s.format.EmailPrompt(), s.format.EmailKeyboard()); err != nil {
			return "", err
		}
		return model.StateAwaitingEmail, nil
	default:
		return s.showCart(ctx, ev)
	}
}

func (s *Storefront) handleEmail(ctx context.Context, ev model.Event) (model.State, error) {
	if ev.IsCallback() {
		if presentation.ParseSelector(ev.Payload).Kind == presentation.SelKindMenu {
			s.dropOrigin(ctx, ev)
			return s.showCatalog(ctx, ev)
		}
		return model.StateAwaitingEmail, s.messenger.SendText(ctx, ev.ChatID, s.format.EmailPrompt(), s.format.EmailKeyboard())
	}

	email := strings.TrimSpace(ev.Payload)
	if err := s.validate.Var(email, "required,email"); err != nil {
		if serr := s.messenger.SendText(ctx, ev.ChatID, s.format.InvalidEmail(email), s.format.EmailKeyboard()); serr != nil {
			return "", serr
		}
		return model.StateAwaitingEmail, &domain.ValidationError{Field: "email", Value: email}
	}

	name := strings.TrimSpace(ev.UserName)
	if name == "" {
		name = ev.UserID
	}
	if _, err := s.commerce.CreateCustomer(ctx, name, email); err != nil {
		if !domain.IsBackendStatus(err, http.StatusConflict) {
			return "", err
		}
		logging.With(ctx, s.log).Debug().Msg("customer already exists; continuing checkout")
	}

	ref := s.newRef()
	logging.With(ctx, s.log).Info().
		Str("order_ref", ref).
		Str("email", logging.Redact(email, s.dev)).
		Msg("order confirmed")
	if err := s.messenger.SendText(ctx, ev.ChatID, s.format.OrderConfirmed(email, ref), nil); err != nil {
		return "", err
	}
	return model.StateStart, nil
}

func (s *Storefront) showCatalog(ctx context.Context, ev model.Event) (model.State, error) {
	products, err := s.commerce.ListProducts(ctx)
	if err != nil {
		return "", err
	}
	if err := s.messenger.SendText(ctx, ev.ChatID, s.format.MenuTitle(products), s.format.CatalogKeyboard(products)); err != nil {
		return "", err
	}
	return model.StateMenuShown, nil
}

func (s *Storefront) showProduct(ctx context.Context, ev model.Event, productID string) (model.State, error) {
	p, err := s.commerce.GetProduct(ctx, productID)
	if err != nil {
		return "", err
	}
	var imageURL string
	if p.HasImage() {
		imageURL, err = s.commerce.GetImageURL(ctx, p.ImageID)
		if err != nil {
			logging.With(ctx, s.log).Warn().Err(err).Str("product_id", p.ID).Msg("product image unavailable; sending text")
			imageURL = ""
		}
	}

	s.dropOrigin(ctx, ev)
	text := s.format.ProductDetail(*p)
	kb := s.format.DescriptionKeyboard(p.ID)
	if imageURL != "" {
		err = s.messenger.SendPhoto(ctx, ev.ChatID, imageURL, text, kb)
	} else {
		err = s.messenger.SendText(ctx, ev.ChatID, text, kb)
	}
	if err != nil {
		return "", err
	}
	return model.StateDescriptionShown, nil
}

func (s *Storefront) showCart(ctx context.Context, ev model.Event) (model.State, error) {
	cart, err := s.commerce.GetCart(ctx, ev.UserID)
	if err != nil {
		return "", err
	}
	items, err := s.commerce.GetCartItems(ctx, ev.UserID)
	if err != nil {
		return "", err
	}
	s.dropOrigin(ctx, ev)
	if err := s.messenger.SendText(ctx, ev.ChatID, s.format.Cart(*cart, items), s.format.CartKeyboard(items)); err != nil {
		return "", err
	}
	return model.StateCartShown, nil
}

// dropOrigin removes the message whose choice was pressed. Telegram refuses
// deletes for old messages, so failures are only logged.
func (s *Storefront) dropOrigin(ctx context.Context, ev model.Event) {
	if ev.Origin == nil {
		return
	}
	if err := s.messenger.DeleteMessage(ctx, *ev.Origin); err != nil {
		logging.With(ctx, s.log).Debug().Err(err).Msg("delete origin message failed")
	}
}

// acknowledging answers the callback query after the handler ran, with a short
// notice for successful adds and failures.
func (s *Storefront) acknowledging(h Handler) Handler {
	return func(ctx context.Context, ev model.Event) (model.State, error) {
		next, err := h(ctx, ev)
		if !ev.IsCallback() || ev.CallbackID == "" {
			return next, err
		}
		var notice string
		var be *domain.BackendError
		switch {
		case err == nil:
			if sel := presentation.ParseSelector(ev.Payload); sel.Kind == presentation.SelKindAdd && next == model.StateDescriptionShown {
				notice = s.format.AddedToCart(sel.Quantity)
			}
		case errors.As(err, &be):
			notice = s.format.Unavailable()
		}
		if aerr := s.messenger.AnswerCallback(ctx, ev.CallbackID, notice); aerr != nil {
			logging.With(ctx, s.log).Debug().Err(aerr).Msg("answer callback failed")
		}
		return next, err
	}
}
