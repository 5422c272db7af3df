// Package reconcile resolves checkout references to canonical order records.
//
// After checkout the client only holds an order id or a live-cart id, and the
// canonical order row can trail the payment by several seconds. The watcher
// polls storage on a fixed backoff until the reference reaches a terminal
// state, then stops.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lepoa-store/club-api/internal/models"
	"github.com/lepoa-store/club-api/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// State is one node of the reconciliation state machine.
type State string

// Watcher states. Resolved, SoftConfirmed and GivenUp are terminal.
const (
	StateIdle          State = "idle"
	StateLoading       State = "loading"
	StateFound         State = "found"
	StateNotFound      State = "not_found"
	StateResolved      State = "resolved"
	StateSoftConfirmed State = "soft_confirmed"
	StateGivenUp       State = "given_up"
)

// Terminal reports whether the state machine stops at s.
func (s State) Terminal() bool {
	return s == StateResolved || s == StateSoftConfirmed || s == StateGivenUp
}

// Reference identifies a checkout: exactly one of the two ids is set.
type Reference struct {
	OrderID    string
	LiveCartID string
}

// ErrInvalidReference rejects references with zero or two ids set.
var ErrInvalidReference = errors.New("reconcile: reference needs exactly one of order id or live cart id")

// Validate checks the xor constraint.
func (r Reference) Validate() error {
	if (r.OrderID == "") == (r.LiveCartID == "") {
		return ErrInvalidReference
	}
	return nil
}

func (r Reference) String() string {
	if r.OrderID != "" {
		return "order:" + r.OrderID
	}
	return "live_cart:" + r.LiveCartID
}

// OrderView is the read model the watcher resolves a reference into. For the
// live-cart fallback it is provisional: Provisional is set and ID carries the
// cart id rather than an order id.
type OrderView struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	Total        float64 `json:"total"`
	CustomerName string  `json:"customer_name"`
	ShippingFee  float64 `json:"shipping_fee"`
	CheckoutURL  string  `json:"checkout_url"`
	Provisional  bool    `json:"provisional"`
}

// Update is one observable transition of the state machine.
type Update struct {
	State    State      `json:"state"`
	Order    *OrderView `json:"order,omitempty"`
	Attempts int        `json:"attempts"`
}

// Watcher polls storage for one reference at a time. Supplying a new
// reference cancels the previous loop; a late poll result from a superseded
// reference can never overwrite newer state.
type Watcher struct {
	db    *gorm.DB
	clock clockwork.Clock

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current Update
}

// NewWatcher constructs a Watcher.
func NewWatcher(db *gorm.DB, clock clockwork.Clock) *Watcher {
	return &Watcher{db: db, clock: clock, current: Update{State: StateIdle}}
}

// Current returns the latest visible state.
func (w *Watcher) Current() Update {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// SetReference starts watching ref, cancelling any previous watch. Updates
// are delivered on the returned channel, which closes once the machine hits
// a terminal state or the context is cancelled.
func (w *Watcher) SetReference(ctx context.Context, ref Reference) (<-chan Update, error) {
	if errRef := ref.Validate(); errRef != nil {
		return nil, errRef
	}

	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	gen := w.gen
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.current = Update{State: StateLoading}
	w.mu.Unlock()

	updates := make(chan Update, settings.ReconcileMaxAttempts()+2)
	go w.run(runCtx, gen, ref, updates)
	return updates, nil
}

// Stop cancels the active watch, if any.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *Watcher) run(ctx context.Context, gen uint64, ref Reference, updates chan<- Update) {
	defer close(updates)

	backoff := time.Duration(settings.ReconcileBackoffSeconds()) * time.Second
	maxRetries := settings.ReconcileMaxAttempts()

	// One initial load, then maxRetries polls spaced by the backoff. Giving
	// up therefore happens no earlier than maxRetries * backoff after start.
	var last Update
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			timer := w.clock.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.Chan():
			}
		}
		if ctx.Err() != nil {
			return
		}

		update, errPoll := w.Poll(ctx, ref)
		if errPoll != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(errPoll).Warnf("reconcile: poll failed (%s attempt=%d)", ref, attempt)
			update = Update{State: StateNotFound}
		}
		update.Attempts = attempt + 1

		if !w.publish(gen, update, updates) {
			return
		}
		last = update
		if update.State.Terminal() {
			return
		}
	}

	// Retry bound exhausted. A reference that never matched anything gives
	// up; a non-terminal order that did match stays on its last view.
	final := Update{State: StateGivenUp, Attempts: maxRetries + 1}
	if last.State == StateFound {
		final = Update{State: last.State, Order: last.Order, Attempts: maxRetries + 1}
	}
	w.publish(gen, final, updates)
}

// publish records update as the visible state and forwards it, unless gen has
// been superseded by a newer reference.
func (w *Watcher) publish(gen uint64, update Update, updates chan<- Update) bool {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return false
	}
	w.current = update
	w.mu.Unlock()

	select {
	case updates <- update:
	default:
	}
	return true
}

// Poll runs one lookup step for ref and classifies the result. It has no
// retry behavior of its own.
func (w *Watcher) Poll(ctx context.Context, ref Reference) (Update, error) {
	if errRef := ref.Validate(); errRef != nil {
		return Update{}, errRef
	}
	if ref.OrderID != "" {
		return w.pollOrder(ctx, ref.OrderID)
	}
	return w.pollLiveCart(ctx, ref.LiveCartID)
}

func (w *Watcher) pollOrder(ctx context.Context, orderID string) (Update, error) {
	var order models.Order
	errFind := w.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return Update{State: StateNotFound}, nil
		}
		return Update{}, fmt.Errorf("reconcile: load order: %w", errFind)
	}
	return classifyOrder(&order), nil
}

func (w *Watcher) pollLiveCart(ctx context.Context, liveCartID string) (Update, error) {
	order, errOrder := w.linkedOrder(ctx, liveCartID)
	if errOrder != nil {
		return Update{}, errOrder
	}
	if order != nil {
		return classifyOrder(order), nil
	}

	var cart models.LiveCart
	errCart := w.db.WithContext(ctx).Where("id = ?", liveCartID).First(&cart).Error
	if errCart != nil {
		if errors.Is(errCart, gorm.ErrRecordNotFound) {
			return Update{State: StateNotFound}, nil
		}
		return Update{}, fmt.Errorf("reconcile: load live cart: %w", errCart)
	}

	if cart.Status == models.OrderStatusPaid {
		// Payment confirmed but the order row has not propagated. One extra
		// linked-order lookup catches the row landing between the two reads.
		order, errOrder = w.linkedOrder(ctx, liveCartID)
		if errOrder != nil {
			return Update{}, errOrder
		}
		if order != nil {
			return classifyOrder(order), nil
		}
		return Update{State: StateSoftConfirmed, Order: liveCartView(&cart)}, nil
	}

	return Update{State: StateFound, Order: liveCartView(&cart)}, nil
}

// linkedOrder finds the most recent order created from the live cart.
func (w *Watcher) linkedOrder(ctx context.Context, liveCartID string) (*models.Order, error) {
	var order models.Order
	errFind := w.db.WithContext(ctx).
		Where("live_cart_id = ?", liveCartID).
		Order("created_at DESC").
		First(&order).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reconcile: load linked order: %w", errFind)
	}
	return &order, nil
}

func classifyOrder(order *models.Order) Update {
	view := &OrderView{
		ID:           order.ID,
		Status:       order.Status,
		Total:        order.Total,
		CustomerName: order.CustomerName,
		ShippingFee:  order.ShippingFee,
		CheckoutURL:  order.CheckoutURL,
	}
	if order.Status == models.OrderStatusPaid {
		return Update{State: StateResolved, Order: view}
	}
	return Update{State: StateFound, Order: view}
}

func liveCartView(cart *models.LiveCart) *OrderView {
	return &OrderView{
		ID:           cart.ID,
		Status:       cart.Status,
		Total:        cart.Total,
		CustomerName: cart.CustomerName,
		ShippingFee:  cart.ShippingFee,
		CheckoutURL:  cart.CheckoutURL,
		Provisional:  true,
	}
}
