package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"grabeat/internal/logger"
	"grabeat/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrInvalidRequest marks validation failures surfaced as 400.
	ErrInvalidRequest = errors.New("invalid order request")
	// ErrPaymentGateway marks checkout-session failures surfaced as 502.
	ErrPaymentGateway = errors.New("payment gateway failure")
	// ErrNotFound marks lookups with no match surfaced as 404.
	ErrNotFound = errors.New("order not found")
)

type DBLayer interface {
	CreateOrder(order *models.Order) error
	GetOrderByID(id string) (*models.Order, error)
	GetOrderBySession(sessionID string) (*models.Order, error)
	SetStripeSession(orderID, sessionID string) error
	UpdateStatus(order *models.Order) error
	ListOrders() ([]models.Order, error)
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, order *models.Order) (*CheckoutSession, error)
	ParseWebhookEvent(payload []byte, signature string) (*PaymentEvent, error)
}

type PromoEngine interface {
	MaybeIssue(order *models.Order) (*models.Promocode, error)
	Verify(code, userEmail string) models.PromocodeCheck
	MarkUsed(code, orderID string) error
}

type Mailer interface {
	SendOrderNotification(order *models.Order) error
}

type Publisher interface {
	PublishOrderCreated(order *models.Order) error
	PublishOrderStatusChanged(order *models.Order) error
}

// StepOutcome records a best-effort side effect so callers and tests
// can see what was attempted without scraping logs. A nil Err means
// the step succeeded.
type StepOutcome struct {
	Step string
	Err  error
}

// CheckoutResult is the successful outcome of createCheckoutSession.
type CheckoutResult struct {
	SessionID       string
	OrderID         string
	PromocodeIssued bool
	SideEffects     []StepOutcome
}

// paymentStatusEffect is the decision table applied by
// UpdateOrderStatus: setting an order confirmed also marks it paid;
// every other status leaves the payment status untouched.
var paymentStatusEffect = map[string]string{
	models.OrderStatusConfirmed: models.PaymentStatusPaid,
}

type OrderService struct {
	DB       DBLayer
	Payments PaymentGateway
	Promos   PromoEngine
	Mail     Mailer
	Events   Publisher
	logger   *logger.Logger
}

func NewOrderService(db DBLayer, payments PaymentGateway, promos PromoEngine, mail Mailer, events Publisher, log *logger.Logger) *OrderService {
	return &OrderService{
		DB:       db,
		Payments: payments,
		Promos:   promos,
		Mail:     mail,
		Events:   events,
		logger:   log,
	}
}

// CreateCheckoutSession persists a pending order, fires the
// best-effort side effects, opens a hosted checkout session and links
// it to the order. Order persistence and session creation are fatal;
// everything in between is suppress-and-log.
func (s *OrderService) CreateCheckoutSession(ctx context.Context, req models.OrderRequest) (*CheckoutResult, error) {
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	if req.PromocodeUsed != "" {
		check := s.Promos.Verify(req.PromocodeUsed, req.CustomerEmail)
		if !check.Valid {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, check.Message)
		}
	}

	order := buildOrder(req)
	s.logger.LogOrder("CREATE", order.ID, fmt.Sprintf("Persisting order for %s, total %d cents", order.CustomerEmail, order.TotalAmount))

	if err := s.DB.CreateOrder(order); err != nil {
		s.logger.Error("ORDER", fmt.Sprintf("Failed to create order: %v", err))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	result := &CheckoutResult{OrderID: order.ID}

	s.bestEffort(result, "admin_notification", func() error {
		return s.Mail.SendOrderNotification(order)
	})

	if order.PromocodeUsed != "" {
		s.bestEffort(result, "promocode_redemption", func() error {
			return s.Promos.MarkUsed(order.PromocodeUsed, order.ID)
		})
	}

	s.bestEffort(result, "promocode_issuance", func() error {
		promo, err := s.Promos.MaybeIssue(order)
		if err != nil {
			return err
		}
		result.PromocodeIssued = promo != nil
		return nil
	})

	s.bestEffort(result, "order_created_event", func() error {
		return s.Events.PublishOrderCreated(order)
	})

	session, err := s.Payments.CreateCheckoutSession(ctx, order)
	if err != nil {
		// The pending order stays behind on purpose; there is no
		// compensation step for an orphaned order.
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	if err := s.DB.SetStripeSession(order.ID, session.ID); err != nil {
		s.logger.Error("ORDER", fmt.Sprintf("Failed to attach session %s to order %s: %v", session.ID, order.ID, err))
		return nil, fmt.Errorf("failed to attach checkout session: %w", err)
	}

	result.SessionID = session.ID
	s.logger.LogOrder("CHECKOUT", order.ID, fmt.Sprintf("Checkout session %s created", session.ID))
	return result, nil
}

func (s *OrderService) bestEffort(result *CheckoutResult, step string, fn func() error) {
	err := fn()
	if err != nil {
		s.logger.Warn("ORDER", fmt.Sprintf("Best-effort step %s failed: %v", step, err))
	}
	result.SideEffects = append(result.SideEffects, StepOutcome{Step: step, Err: err})
}

func (s *OrderService) GetOrderBySession(sessionID string) (*models.Order, error) {
	order, err := s.DB.GetOrderBySession(sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order by session: %w", err)
	}
	return order, nil
}

// VerifyPromocode is a pure read-time check delegated to the engine.
func (s *OrderService) VerifyPromocode(code, userEmail string) models.PromocodeCheck {
	return s.Promos.Verify(code, userEmail)
}

// UpdateOrderStatus sets the lifecycle status and applies the payment
// decision table.
func (s *OrderService) UpdateOrderStatus(orderID, status string) (*models.Order, error) {
	if !isKnownStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
	}

	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}

	order.Status = status
	if effect, ok := paymentStatusEffect[status]; ok {
		order.PaymentStatus = effect
	}

	if err := s.DB.UpdateStatus(order); err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", orderID, err)
	}

	if err := s.Events.PublishOrderStatusChanged(order); err != nil {
		s.logger.Warn("ORDER", fmt.Sprintf("Failed to publish status change for order %s: %v", orderID, err))
	}

	s.logger.LogOrder("STATUS", orderID, fmt.Sprintf("Status set to %s (payment %s)", order.Status, order.PaymentStatus))
	return order, nil
}

func (s *OrderService) ListOrders() ([]models.Order, error) {
	return s.DB.ListOrders()
}

// HandleStripeWebhook verifies and applies an out-of-band payment
// notification.
func (s *OrderService) HandleStripeWebhook(payload []byte, signature string) error {
	event, err := s.Payments.ParseWebhookEvent(payload, signature)
	if err != nil {
		return err
	}
	if event == nil {
		return nil
	}

	order, err := s.DB.GetOrderByID(event.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("WEBHOOK", fmt.Sprintf("Webhook references unknown order %s", event.OrderID))
			return ErrNotFound
		}
		return fmt.Errorf("failed to load order %s: %w", event.OrderID, err)
	}

	switch event.Kind {
	case PaymentEventCompleted:
		order.Status = models.OrderStatusConfirmed
		order.PaymentStatus = models.PaymentStatusPaid
		order.StripePaymentIntentID = event.PaymentIntentID
	case PaymentEventExpired:
		if order.Status != models.OrderStatusPending {
			s.logger.Info("WEBHOOK", fmt.Sprintf("Ignoring expiry for non-pending order %s", order.ID))
			return nil
		}
		order.Status = models.OrderStatusCancelled
		order.PaymentStatus = models.PaymentStatusFailed
	default:
		return nil
	}

	if err := s.DB.UpdateStatus(order); err != nil {
		return fmt.Errorf("failed to update order %s from webhook: %w", order.ID, err)
	}

	if err := s.Events.PublishOrderStatusChanged(order); err != nil {
		s.logger.Warn("ORDER", fmt.Sprintf("Failed to publish status change for order %s: %v", order.ID, err))
	}

	s.logger.LogOrder("WEBHOOK", order.ID, fmt.Sprintf("Payment event %s applied", event.Kind))
	return nil
}

func buildOrder(req models.OrderRequest) *models.Order {
	orderID := uuid.NewString()

	items := make([]*models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, &models.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			MenuItemID: item.MenuItemID,
			Title:      item.Title,
			Price:      item.Price,
			Quantity:   item.Quantity,
			Total:      item.Total,
		})
	}

	return &models.Order{
		ID:              orderID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		Items:           items,
		Subtotal:        req.Subtotal,
		DeliveryFee:     req.DeliveryFee,
		TotalAmount:     req.TotalAmount,
		PromocodeUsed:   strings.ToUpper(strings.TrimSpace(req.PromocodeUsed)),
		DiscountAmount:  req.DiscountAmount,
		OriginalTotal:   req.OriginalTotal,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
	}
}

func validateOrderRequest(req models.OrderRequest) error {
	switch {
	case strings.TrimSpace(req.CustomerName) == "":
		return fmt.Errorf("%w: customer name is required", ErrInvalidRequest)
	case strings.TrimSpace(req.CustomerEmail) == "":
		return fmt.Errorf("%w: customer email is required", ErrInvalidRequest)
	case strings.TrimSpace(req.CustomerPhone) == "":
		return fmt.Errorf("%w: customer phone is required", ErrInvalidRequest)
	case strings.TrimSpace(req.DeliveryAddress) == "":
		return fmt.Errorf("%w: delivery address is required", ErrInvalidRequest)
	case len(req.Items) == 0:
		return fmt.Errorf("%w: order must contain at least one item", ErrInvalidRequest)
	}

	var subtotal int64
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d has non-positive quantity", ErrInvalidRequest, i)
		}
		if item.Price < 0 {
			return fmt.Errorf("%w: item %d has negative price", ErrInvalidRequest, i)
		}
		if item.Total != item.Price*item.Quantity {
			return fmt.Errorf("%w: item %d total does not match price*quantity", ErrInvalidRequest, i)
		}
		subtotal += item.Total
	}

	if req.Subtotal != subtotal {
		return fmt.Errorf("%w: subtotal does not match item totals", ErrInvalidRequest)
	}
	if req.DeliveryFee < 0 || req.DiscountAmount < 0 {
		return fmt.Errorf("%w: negative fee or discount", ErrInvalidRequest)
	}
	if req.TotalAmount != req.Subtotal+req.DeliveryFee-req.DiscountAmount {
		return fmt.Errorf("%w: total amount does not equal subtotal + delivery fee - discount", ErrInvalidRequest)
	}
	if req.DiscountAmount > 0 && req.PromocodeUsed == "" {
		return fmt.Errorf("%w: discount without a promocode", ErrInvalidRequest)
	}
	return nil
}

func isKnownStatus(status string) bool {
	for _, s := range models.OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}
