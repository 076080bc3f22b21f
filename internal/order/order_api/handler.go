package order_api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"grabeat/internal/logger"
	"grabeat/internal/models"
	"grabeat/internal/order"
	"grabeat/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Service is the slice of the order orchestrator the HTTP layer needs.
type Service interface {
	CreateCheckoutSession(ctx context.Context, req models.OrderRequest) (*order.CheckoutResult, error)
	GetOrderBySession(sessionID string) (*models.Order, error)
	VerifyPromocode(code, userEmail string) models.PromocodeCheck
	UpdateOrderStatus(orderID, status string) (*models.Order, error)
	ListOrders() ([]models.Order, error)
	HandleStripeWebhook(payload []byte, signature string) error
}

type OrderHandler struct {
	Service Service
	Log     *logger.Logger
}

func NewOrderHandler(service Service, log *logger.Logger) *OrderHandler {
	return &OrderHandler{Service: service, Log: log}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/create-checkout-session", h.CreateCheckoutSession)
	r.Get("/success", h.OrderSuccess)
	r.Post("/verify-promocode", h.VerifyPromocode)
	r.Get("/", h.ListOrders)
	r.Patch("/{orderId}/status", h.UpdateOrderStatus)
	r.Post("/webhook", h.StripeWebhook)
}

func (h *OrderHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	result, err := h.Service.CreateCheckoutSession(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := models.CheckoutResponse{SessionID: result.SessionID, OrderID: result.OrderID}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Checkout session created successfully", resp))
}

// OrderSuccess resolves the order behind a completed checkout session
// so the storefront confirmation page can render it.
func (h *OrderHandler) OrderSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("session_id query parameter is required"))
		return
	}

	ord, err := h.Service.GetOrderBySession(sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order fetched successfully", ord))
}

func (h *OrderHandler) VerifyPromocode(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPromocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	// Both fields are required before the engine is consulted at all.
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.UserEmail) == "" {
		check := models.PromocodeCheck{Valid: false, Message: "Promocode and user email are required"}
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Promocode verified", check))
		return
	}

	check := h.Service.VerifyPromocode(req.Code, req.UserEmail)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Promocode verified", check))
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.ListOrders()
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Orders fetched successfully", orders))
}

func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req models.UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body"))
		return
	}

	ord, err := h.Service.UpdateOrderStatus(orderID, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order status updated successfully", ord))
}

func (h *OrderHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Failed to read request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if err := h.Service.HandleStripeWebhook(payload, signature); err != nil {
		var whErr *order.WebhookError
		if errors.As(err, &whErr) {
			utils.WriteJSON(w, whErr.StatusCode, utils.ErrorResponse(whErr.PublicError))
			return
		}
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Webhook processed", nil))
}

func (h *OrderHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrInvalidRequest):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	case errors.Is(err, order.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Order not found"))
	case errors.Is(err, order.ErrPaymentGateway):
		h.Log.Error("ORDER", err.Error())
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Payment gateway error"))
	default:
		h.Log.Error("ORDER", err.Error())
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error"))
	}
}
