// Package checkout drives the three-step storefront checkout: shipping, payment
// method, then review and place.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/payment"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

type Step int

const (
	StepNone Step = iota
	StepShipping
	StepPayment
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	}
	return "none"
}

var (
	// ErrEmptyCart means there is nothing to check out; send the shopper back to the cart.
	ErrEmptyCart = errors.New("cart is empty")
	ErrWrongStep = errors.New("checkout is not at that step")

	// ErrPaymentFailed means the gateway did not capture funds. No order exists.
	ErrPaymentFailed = errors.New("payment failed")

	// ErrOrderAfterPayment means funds were captured but the order was not recorded.
	ErrOrderAfterPayment = errors.New("payment succeeded but the order could not be recorded")
)

// OrderAfterPaymentError carries the captured payment so support can reconcile it.
type OrderAfterPaymentError struct {
	PaymentID      string
	GatewayOrderID string
	Err            error
}

func (e *OrderAfterPaymentError) Error() string {
	return fmt.Sprintf("%s (payment reference %s): %v", ErrOrderAfterPayment, e.PaymentID, e.Err)
}

func (e *OrderAfterPaymentError) Is(target error) bool { return target == ErrOrderAfterPayment }

func (e *OrderAfterPaymentError) Unwrap() error { return e.Err }

// OrderPlacer records an order; *shopclient.Client satisfies it.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req transport.PlaceOrderRequest) (*transport.PlaceOrderResponse, error)
}

type Receipt struct {
	OrderID     uuid.UUID
	Message     string
	CartCleared bool
	PaymentID   string
}

type Machine struct {
	Store   DraftStore
	Orders  OrderPlacer
	Gateway payment.Gateway

	draft *Draft
}

func New(store DraftStore, orders OrderPlacer, gw payment.Gateway) *Machine {
	if store == nil {
		store = &MemoryDraftStore{}
	}
	return &Machine{Store: store, Orders: orders, Gateway: gw}
}

// Resume picks up a saved draft. With nothing saved the machine stays at StepNone.
func (m *Machine) Resume() error {
	d, err := m.Store.Load()
	if errors.Is(err, ErrNoDraft) {
		m.draft = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("load draft: %w", err)
	}
	m.draft = d
	return nil
}

func (m *Machine) Step() Step {
	if m.draft == nil {
		return StepNone
	}
	return m.draft.Step
}

// Draft returns a copy of the checkout in progress, or nil.
func (m *Machine) Draft() *Draft {
	if m.draft == nil {
		return nil
	}
	return m.draft.clone()
}

// ItemsFromCart snapshots a cart into order lines. Lines whose product no longer
// exists are dropped.
func ItemsFromCart(cart *transport.CartView) []transport.OrderItemRequest {
	if cart == nil {
		return nil
	}
	items := make([]transport.OrderItemRequest, 0, len(cart.Items))
	for _, line := range cart.Items {
		if line.Product == nil || line.Quantity <= 0 {
			continue
		}
		items = append(items, transport.OrderItemRequest{
			ProductID: line.ProductID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
		})
	}
	return items
}

// Start begins checkout with a snapshot of items. A draft that already captured
// a payment is kept so the order can still be recorded.
func (m *Machine) Start(items []transport.OrderItemRequest) error {
	if m.draft != nil && m.draft.Payment != nil {
		return fmt.Errorf("%w: a captured payment is waiting to be recorded", ErrWrongStep)
	}
	if len(items) == 0 {
		return ErrEmptyCart
	}
	d := &Draft{
		Step:  StepShipping,
		Items: append([]transport.OrderItemRequest(nil), items...),
	}
	if err := m.Store.Save(d); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	m.draft = d
	return nil
}

func (m *Machine) at(step Step) error {
	if m.draft == nil || len(m.draft.Items) == 0 {
		return ErrEmptyCart
	}
	if m.draft.Step != step {
		return fmt.Errorf("%w: at %s, want %s", ErrWrongStep, m.draft.Step, step)
	}
	return nil
}

// advance saves next and only then moves the in-memory draft.
func (m *Machine) advance(next *Draft) error {
	if err := m.Store.Save(next); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	m.draft = next
	return nil
}

func (m *Machine) SubmitShipping(addr transport.ShippingAddress) error {
	if err := m.at(StepShipping); err != nil {
		return err
	}
	if err := transport.Validate(addr); err != nil {
		return err
	}
	next := m.draft.clone()
	next.Shipping = &addr
	next.Step = StepPayment
	return m.advance(next)
}

func (m *Machine) SubmitPayment(method string) error {
	if err := m.at(StepPayment); err != nil {
		return err
	}
	switch method {
	case models.PaymentCOD, models.PaymentOnline:
	default:
		return apperr.Validation("paymentMethod must be one of: cod online")
	}
	next := m.draft.clone()
	next.PaymentMethod = method
	next.Step = StepReview
	return m.advance(next)
}

// Back returns to the previous step. Leaving step 1 is up to the caller.
func (m *Machine) Back() error {
	if m.draft == nil {
		return ErrEmptyCart
	}
	if m.draft.Step <= StepShipping {
		return fmt.Errorf("%w: already at %s", ErrWrongStep, m.draft.Step)
	}
	if m.draft.Payment != nil {
		return fmt.Errorf("%w: payment already captured", ErrWrongStep)
	}
	next := m.draft.clone()
	next.Step--
	return m.advance(next)
}

func (m *Machine) request() transport.PlaceOrderRequest {
	d := m.draft
	req := transport.PlaceOrderRequest{
		Items:           d.Items,
		ShippingAddress: d.Shipping,
		PaymentMethod:   d.PaymentMethod,
		TotalAmount:     d.Total().InexactFloat64(),
	}
	if d.Payment != nil {
		req.Payment = &transport.PaymentProof{
			GatewayOrderID: d.Payment.GatewayOrderID,
			PaymentID:      d.Payment.PaymentID,
			Signature:      d.Payment.Signature,
		}
	}
	return req
}

// Place confirms the review step. Cash on delivery records the order directly;
// online payment charges through the gateway first. On any failure the machine
// stays at the review step.
func (m *Machine) Place(ctx context.Context) (*Receipt, error) {
	if err := m.at(StepReview); err != nil {
		return nil, err
	}

	var saveErr error
	if m.draft.PaymentMethod == models.PaymentOnline && m.draft.Payment == nil {
		if m.Gateway == nil {
			return nil, fmt.Errorf("%w: no payment gateway configured", ErrPaymentFailed)
		}
		res, err := m.Gateway.Pay(ctx, payment.Request{
			Amount:   payment.MinorUnits(m.draft.Total().InexactFloat64()),
			Currency: payment.CurrencyINR,
			Receipt:  uuid.NewString(),
			Name:     m.draft.Shipping.FullName,
			Contact:  m.draft.Shipping.Phone,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
		}
		next := m.draft.clone()
		next.Payment = res
		if err := m.advance(next); err != nil {
			// the captured payment must stay in memory even when it cannot be persisted
			m.draft = next
			saveErr = fmt.Errorf("save draft with payment %s: %w", res.PaymentID, err)
		}
	}

	resp, err := m.Orders.PlaceOrder(ctx, m.request())
	if err != nil {
		if p := m.draft.Payment; p != nil {
			return nil, &OrderAfterPaymentError{PaymentID: p.PaymentID, GatewayOrderID: p.GatewayOrderID, Err: errors.Join(err, saveErr)}
		}
		return nil, err
	}

	rec := &Receipt{OrderID: resp.OrderID, Message: resp.Message, CartCleared: resp.CartCleared}
	if m.draft.Payment != nil {
		rec.PaymentID = m.draft.Payment.PaymentID
	}
	m.draft = nil
	if err := m.Store.Clear(); err != nil {
		return rec, fmt.Errorf("order %s placed but draft not cleared: %w", resp.OrderID, errors.Join(err, saveErr))
	}
	return rec, nil
}

// Abandon drops the draft. It refuses while a captured payment has no order.
func (m *Machine) Abandon() error {
	if m.draft != nil && m.draft.Payment != nil {
		return &OrderAfterPaymentError{PaymentID: m.draft.Payment.PaymentID, GatewayOrderID: m.draft.Payment.GatewayOrderID, Err: errors.New("checkout abandoned")}
	}
	m.draft = nil
	return m.Store.Clear()
}
