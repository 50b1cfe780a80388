//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
	"telegram-storefront/internal/infra/i18n"
	"telegram-storefront/internal/presentation"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestFormatter(t *testing.T) *presentation.Formatter {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	require.NoError(t, err)
	return presentation.NewFormatter(tr)
}

// memStateRepo is an in-memory StateRepository with injectable failures.
type memStateRepo struct {
	mu     sync.Mutex
	states map[string]model.State
	getErr error
	setErr error
	sets   int
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{states: make(map[string]model.State)}
}

func (m *memStateRepo) GetState(_ context.Context, userID string) (model.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, &domain.StoreUnavailableError{Op: "get", Err: m.getErr}
	}
	s, ok := m.states[userID]
	return s, ok, nil
}

func (m *memStateRepo) SetState(_ context.Context, userID string, s model.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return &domain.StoreUnavailableError{Op: "set", Err: m.setErr}
	}
	m.sets++
	m.states[userID] = s
	return nil
}

func (m *memStateRepo) Ping(context.Context) error { return nil }

func (m *memStateRepo) get(userID string) (model.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[userID]
	return s, ok
}

func (m *memStateRepo) put(userID string, s model.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = s
}

// memCommerce is an in-memory backend. Cart reads and writes are deliberately
// split (read, then write) so unserialized callers would lose updates.
type memCommerce struct {
	mu        sync.Mutex
	products  []model.Product
	images    map[string]string
	carts     map[string][]model.CartItem
	customers map[string]model.Customer
	nextItem  int
	failOps   map[string]error
	calls     map[string]int
}

func newMemCommerce() *memCommerce {
	return &memCommerce{
		products: []model.Product{
			{ID: "p1", Name: "Salmon", Description: "Fresh", WeightKg: 1, Price: "$10.00", ImageID: "img-1"},
			{ID: "p2", Name: "Tuna", Description: "Canned", WeightKg: 0.5, Price: "$7.00"},
		},
		images:    map[string]string{"img-1": "https://cdn.example/salmon.png"},
		carts:     make(map[string][]model.CartItem),
		customers: make(map[string]model.Customer),
		failOps:   make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (c *memCommerce) enter(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[op]++
	return c.failOps[op]
}

func (c *memCommerce) failWith(op string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failOps[op] = &domain.BackendError{Op: op, Status: status, Body: "simulated"}
}

func (c *memCommerce) callCount(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *memCommerce) ListProducts(context.Context) ([]model.Product, error) {
	if err := c.enter("ListProducts"); err != nil {
		return nil, err
	}
	return append([]model.Product(nil), c.products...), nil
}

func (c *memCommerce) GetProduct(_ context.Context, id string) (*model.Product, error) {
	if err := c.enter("GetProduct"); err != nil {
		return nil, err
	}
	for _, p := range c.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, &domain.BackendError{Op: "GetProduct", Status: http.StatusNotFound}
}

func (c *memCommerce) GetImageURL(_ context.Context, id string) (string, error) {
	if err := c.enter("GetImageURL"); err != nil {
		return "", err
	}
	return c.images[id], nil
}

func (c *memCommerce) GetCart(_ context.Context, cartID string) (*model.Cart, error) {
	if err := c.enter("GetCart"); err != nil {
		return nil, err
	}
	items := c.snapshot(cartID)
	total := 0
	for _, it := range items {
		total += it.Quantity * c.unitCents(it.ProductID)
	}
	return &model.Cart{ID: cartID, Total: fmt.Sprintf("$%d.%02d", total/100, total%100)}, nil
}

func (c *memCommerce) GetCartItems(_ context.Context, cartID string) ([]model.CartItem, error) {
	if err := c.enter("GetCartItems"); err != nil {
		return nil, err
	}
	return c.snapshot(cartID), nil
}

func (c *memCommerce) AddToCart(_ context.Context, cartID, productID string, qty int) error {
	if err := c.enter("AddToCart"); err != nil {
		return err
	}
	items := c.snapshot(cartID)
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += qty
			found = true
		}
	}
	if !found {
		c.mu.Lock()
		c.nextItem++
		id := fmt.Sprintf("item-%d", c.nextItem)
		c.mu.Unlock()
		name := productID
		for _, p := range c.products {
			if p.ID == productID {
				name = p.Name
			}
		}
		items = append(items, model.CartItem{ID: id, ProductID: productID, Name: name, Quantity: qty})
	}
	c.mu.Lock()
	c.carts[cartID] = items
	c.mu.Unlock()
	return nil
}

func (c *memCommerce) RemoveFromCart(_ context.Context, cartID, itemID string) error {
	if err := c.enter("RemoveFromCart"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.carts[cartID][:0]
	for _, it := range c.carts[cartID] {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	c.carts[cartID] = kept
	return nil
}

func (c *memCommerce) CreateCustomer(_ context.Context, name, email string) (*model.Customer, error) {
	if err := c.enter("CreateCustomer"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.customers[email]; ok {
		return nil, &domain.BackendError{Op: "CreateCustomer", Status: http.StatusConflict, Body: "duplicate"}
	}
	cust := model.Customer{ID: "cust-" + email, Name: name, Email: email}
	c.customers[email] = cust
	return &cust, nil
}

func (c *memCommerce) snapshot(cartID string) []model.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]model.CartItem(nil), c.carts[cartID]...)
	for i := range out {
		cents := c.unitCentsLocked(out[i].ProductID)
		out[i].UnitPrice = fmt.Sprintf("$%d.%02d", cents/100, cents%100)
		line := cents * out[i].Quantity
		out[i].LinePrice = fmt.Sprintf("$%d.%02d", line/100, line%100)
	}
	return out
}

func (c *memCommerce) unitCents(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unitCentsLocked(productID)
}

func (c *memCommerce) unitCentsLocked(productID string) int {
	switch productID {
	case "p1":
		return 1000
	case "p2":
		return 700
	}
	return 0
}

type sentMessage struct {
	ChatID   int64
	Text     string
	ImageURL string
	Keyboard adapter.Keyboard
}

// recordingMessenger keeps everything sent so tests can inspect the dialogue.
type recordingMessenger struct {
	mu       sync.Mutex
	sent     []sentMessage
	deleted  []model.MessageRef
	answered map[string]string
	sendErr  error
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{answered: make(map[string]string)}
}

func (r *recordingMessenger) SendText(_ context.Context, chatID int64, text string, kb adapter.Keyboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendErr != nil {
		return r.sendErr
	}
	r.sent = append(r.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: kb})
	return nil
}

func (r *recordingMessenger) SendPhoto(_ context.Context, chatID int64, imageURL, caption string, kb adapter.Keyboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendErr != nil {
		return r.sendErr
	}
	r.sent = append(r.sent, sentMessage{ChatID: chatID, Text: caption, ImageURL: imageURL, Keyboard: kb})
	return nil
}

func (r *recordingMessenger) DeleteMessage(_ context.Context, ref model.MessageRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, ref)
	return nil
}

func (r *recordingMessenger) AnswerCallback(_ context.Context, id, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answered[id] = text
	return nil
}

func (r *recordingMessenger) last() sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return sentMessage{}
	}
	return r.sent[len(r.sent)-1]
}

func (r *recordingMessenger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func selectors(kb adapter.Keyboard) []string {
	var out []string
	for _, row := range kb {
		for _, c := range row {
			out = append(out, c.Data)
		}
	}
	return out
}

func text(userID, payload string) model.Event {
	return model.Event{Kind: model.EventText, UserID: userID, ChatID: 100, UserName: "ann", Payload: payload}
}

func press(userID, data string) model.Event {
	return model.Event{
		Kind:       model.EventCallback,
		UserID:     userID,
		ChatID:     100,
		UserName:   "ann",
		Payload:    data,
		CallbackID: "cb-" + data,
		Origin:     &model.MessageRef{ChatID: 100, MessageID: 7},
	}
}
