package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/electro_shop/internal/events"
	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/internal/repo"
	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/payment"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

// totalTolerance absorbs float rounding in client-computed totals.
var totalTolerance = decimal.New(1, -2)

type OrderService struct {
	Repo   *repo.GormRepo
	Carts  *CartService
	Events events.Publisher
	Now    func() time.Time

	// PaymentSecret enables signature checks on online payments. Without it an
	// online order is stored with PaymentVerified false.
	PaymentSecret string
}

type PlaceOrderResult struct {
	Order       *models.Order
	CartCleared bool
}

// ItemsTotal sums price*quantity exactly.
func ItemsTotal(items []transport.OrderItemRequest) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// PlaceOrder stores the order from the submitted item snapshot, then empties the cart.
// The cart step is a follow-up: if it fails the order still stands and CartCleared is false.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req transport.PlaceOrderRequest) (*PlaceOrderResult, error) {
	l := logging.FromContext(ctx).With("svc", "order.place")

	if err := transport.Validate(req); err != nil {
		l.Warn("place_order_error", "status", 400, "error", err)
		return nil, err
	}

	computed := ItemsTotal(req.Items)
	total := computed
	if req.TotalAmount > 0 {
		claimed := decimal.NewFromFloat(req.TotalAmount)
		if claimed.Sub(computed).Abs().GreaterThan(totalTolerance) {
			l.Warn("place_order_error", "status", 400, "reason", "total mismatch",
				"claimed", claimed.String(), "computed", computed.String())
			return nil, apperr.Validation("totalAmount does not match items")
		}
	}

	order := &models.Order{
		UserID:        userID,
		Items:         make([]models.OrderItem, 0, len(req.Items)),
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   total.Round(2).InexactFloat64(),
		Status:        models.OrderStatusPending,
		CreatedAt:     utcNow(s.Now),
	}
	for _, it := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity,
		})
	}
	sa := req.ShippingAddress
	order.ShippingAddress = models.ShippingAddress{
		FullName: sa.FullName, Address: sa.Address, City: sa.City,
		State: sa.State, Pincode: sa.Pincode, Phone: sa.Phone,
	}

	if err := s.checkPayment(ctx, req, order); err != nil {
		return nil, err
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, storeErr(l, "place_order", "order", err)
	}
	l.Info("order_placed", "order_id", order.ID, "user_id", userID, "total", order.TotalAmount)

	publish(ctx, s.Events, events.TopicOrders, userID.String(), events.OrderPlaced,
		map[string]any{
			"orderId": order.ID, "userId": userID, "totalAmount": order.TotalAmount,
			"paymentMethod": order.PaymentMethod, "items": order.Items,
		}, order.CreatedAt)

	res := &PlaceOrderResult{Order: order, CartCleared: true}
	if s.Carts != nil {
		if err := s.Carts.Clear(ctx, userID); err != nil {
			l.Error("cart_clear_after_order_failed", "order_id", order.ID, "user_id", userID, "error", err)
			res.CartCleared = false
		}
	}
	return res, nil
}

func (s *OrderService) checkPayment(ctx context.Context, req transport.PlaceOrderRequest, order *models.Order) error {
	if req.PaymentMethod != models.PaymentOnline {
		return nil
	}
	l := logging.FromContext(ctx).With("svc", "order.payment")

	proof := req.Payment
	if proof != nil {
		order.PaymentReference = proof.PaymentID
	}

	if s.PaymentSecret == "" {
		l.Warn("payment_unverified", "reason", "no payment secret configured")
		return nil
	}
	if proof == nil {
		return apperr.Validation("payment confirmation is required for online orders")
	}
	if !payment.Verify(s.PaymentSecret, payment.Result{
		GatewayOrderID: proof.GatewayOrderID,
		PaymentID:      proof.PaymentID,
		Signature:      proof.Signature,
	}) {
		l.Warn("payment_signature_invalid", "payment_id", proof.PaymentID)
		return apperr.Validation("payment signature verification failed")
	}
	order.PaymentVerified = true
	return nil
}

func (s *OrderService) History(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.history")

	orders, err := s.Repo.ListOrders(ctx, userID)
	if err != nil {
		return nil, storeErr(l, "order_history", "orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// GetOrder reports NotFound for orders owned by someone else.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.get")

	o, err := s.Repo.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, storeErr(l, "get_order", "Order not found", err)
	}
	return o, nil
}
