package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"grabeat/internal/logger"
	"grabeat/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// CheckoutSession is the hosted-payment handle returned by the gateway.
type CheckoutSession struct {
	ID  string
	URL string
}

const (
	PaymentEventCompleted = "completed"
	PaymentEventExpired   = "expired"
)

// PaymentEvent is a webhook notification normalized to what the
// orchestrator needs.
type PaymentEvent struct {
	Kind            string
	OrderID         string
	SessionID       string
	PaymentIntentID string
}

// WebhookError carries an HTTP status and a client-safe message next
// to the detailed error kept for logs.
type WebhookError struct {
	StatusCode    int
	PublicError   string
	InternalError string
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

// StripeGateway creates hosted checkout sessions and verifies webhook
// signatures. The client is built once at startup and injected, never
// held as a package global.
type StripeGateway struct {
	client        *client.API
	webhookSecret string
	frontendURL   string
	currency      string
	log           *logger.Logger
}

func NewStripeGateway(secretKey, webhookSecret, frontendURL, currency string, log *logger.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY environment variable not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{
		client:        sc,
		webhookSecret: webhookSecret,
		frontendURL:   frontendURL,
		currency:      currency,
		log:           log,
	}, nil
}

// CreateCheckoutSession opens a hosted checkout with one line item per
// order item. Unit amounts are already minor currency units.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, order *models.Order) (*CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.Title),
					Description: stripe.String(fmt.Sprintf("Quantity: %d", item.Quantity)),
				},
				UnitAmount: stripe.Int64(item.Price),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(fmt.Sprintf("%s/order-success?session_id={CHECKOUT_SESSION_ID}&order_id=%s", g.frontendURL, order.ID)),
		CancelURL:          stripe.String(fmt.Sprintf("%s/menu", g.frontendURL)),
		CustomerEmail:      stripe.String(order.CustomerEmail),
		LineItems:          lineItems,
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID)
	params.AddMetadata("customer_name", order.CustomerName)
	params.AddMetadata("customer_phone", order.CustomerPhone)

	sess, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session for order %s: %v", order.ID, err))
		return nil, err
	}

	g.log.Info("STRIPE", fmt.Sprintf("Created checkout session %s for order %s", sess.ID, order.ID))
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhookEvent verifies the signature and maps the event to a
// PaymentEvent. Event types the orchestrator does not care about come
// back as (nil, nil).
func (g *StripeGateway) ParseWebhookEvent(payload []byte, signature string) (*PaymentEvent, error) {
	if g.webhookSecret == "" {
		g.log.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return nil, &WebhookError{
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	opts := webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, opts)
	if err != nil {
		g.log.Error("WEBHOOK", fmt.Sprintf("Webhook signature verification failed: %v", err))
		return nil, &WebhookError{
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook signature",
			InternalError: fmt.Sprintf("webhook signature verification failed: %v", err),
		}
	}

	g.log.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event: %s", event.Type))

	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, &WebhookError{
				StatusCode:    http.StatusBadRequest,
				PublicError:   "Invalid event data",
				InternalError: fmt.Sprintf("failed to unmarshal checkout session: %v", err),
			}
		}

		orderID, exists := sess.Metadata["order_id"]
		if !exists {
			return nil, &WebhookError{
				StatusCode:    http.StatusBadRequest,
				PublicError:   "Invalid checkout session data",
				InternalError: "checkout session has no order_id in metadata",
			}
		}

		ev := &PaymentEvent{
			Kind:      PaymentEventCompleted,
			OrderID:   orderID,
			SessionID: sess.ID,
		}
		if event.Type == "checkout.session.expired" {
			ev.Kind = PaymentEventExpired
		}
		if sess.PaymentIntent != nil {
			ev.PaymentIntentID = sess.PaymentIntent.ID
		}
		return ev, nil

	default:
		g.log.Info("WEBHOOK", fmt.Sprintf("Unhandled event type: %s", event.Type))
		return nil, nil
	}
}
