package transport

import (
	"errors"
	"net/http"

	"quickbasket/internal/middleware"
	"quickbasket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutRequest represents the card checkout payload
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required"`
}

// VerifyPaymentRequest carries the hosted session to confirm
type VerifyPaymentRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// PlaceOrderRequest represents the cash-on-delivery order payload
type PlaceOrderRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required"`
}

// OrderHandler handles HTTP requests for checkout and orders
type OrderHandler struct {
	checkoutService service.CheckoutService
	orderService    service.OrderService
	logger          *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkoutService service.CheckoutService, orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
		logger:          logger,
	}
}

// RegisterRoutes registers checkout and order routes. Every route requires a
// login.
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/checkout", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/session", h.CreateCheckoutSession)
		r.Post("/verify", h.VerifyPayment)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.PlaceOrder)
		r.Get("/", h.ListOrders)
	})
}

// CreateCheckoutSession opens a hosted card payment session for the cart
func (h *OrderHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.checkoutService.BeginCardCheckout(r.Context(), userID, req.ShippingAddress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
		case errors.Is(err, service.ErrPaymentSession):
			h.logger.Error("Payment session creation failed", zap.Error(err), zap.String("user_id", userID.String()))
			middleware.RespondWithError(w, http.StatusBadGateway, "failed to create payment session")
		default:
			h.logger.Error("Checkout failed", zap.Error(err), zap.String("user_id", userID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to start checkout")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"sessionId": session.SessionID,
		"url":       session.RedirectURL,
	})
}

// VerifyPayment confirms a hosted session and returns the order it produced.
// The session ID arrives either as a session_id query parameter, the way the
// hosted checkout redirect delivers it, or in the JSON body. Calling it again
// for the same session returns the same order.
func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
		req.SessionID = sessionID
	} else if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Verify payment validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.checkoutService.ConfirmPayment(r.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingSession):
			middleware.RespondWithError(w, http.StatusBadRequest, "session ID required")
		case errors.Is(err, service.ErrPaymentNotCompleted):
			middleware.RespondWithError(w, http.StatusBadRequest, "payment not completed")
		case errors.Is(err, service.ErrMissingMetadata):
			middleware.RespondWithError(w, http.StatusBadRequest, "payment session is missing order details")
		case errors.Is(err, service.ErrEmptyCart):
			middleware.RespondWithError(w, http.StatusConflict, "cart is empty")
		default:
			h.logger.Error("Payment verification failed", zap.Error(err), zap.String("session_id", req.SessionID))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to verify payment")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Payment verified and order created",
		"order": map[string]interface{}{
			"id":          order.ID.String(),
			"orderNumber": order.OrderNumber,
		},
	})
}

// PlaceOrder creates a cash-on-delivery order from the cart
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PlaceOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Place order validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.checkoutService.PlaceCODOrder(r.Context(), userID, req.ShippingAddress)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
			return
		}

		h.logger.Error("Failed to place order", zap.Error(err), zap.String("user_id", userID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to place order")
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    order,
	})
}

// ListOrders returns the user's orders, newest first, with their lines
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orderService.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err), zap.String("user_id", userID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    orders,
	})
}
