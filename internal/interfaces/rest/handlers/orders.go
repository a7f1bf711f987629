package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/application/services"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/bookcourier/book-courier-api/internal/interfaces/rest"
	"github.com/bookcourier/book-courier-api/internal/interfaces/rest/middleware"
	"github.com/go-playground/validator"
)

type OrderService interface {
	Create(ctx context.Context, cmd services.CreateOrderCommand) (*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	ListForCustomer(ctx context.Context, identity domain.Identity, email string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, patch domain.StatusPatch) (*application.UpdateOutcome, error)
}

type OrderHandler struct {
	orders   OrderService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewOrderHandler(orders OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes mounts the order endpoints. The customer listing is
// identity-gated, so it goes through the auth middleware.
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /orders", h.HandleCreate)
	mux.HandleFunc("GET /orders", h.HandleListAll)
	mux.Handle("GET /orders/{email}", auth(http.HandlerFunc(h.HandleListForCustomer)))
	mux.HandleFunc("PATCH /orders/{id}", h.HandleUpdateStatus)
}

type orderResponse struct {
	ID                string    `json:"id"`
	CustomerEmail     string    `json:"customerEmail"`
	BookID            string    `json:"bookId"`
	OrderStatus       string    `json:"orderStatus"`
	IsCanceled        bool      `json:"isCanceled"`
	PaymentStatus     string    `json:"paymentStatus"`
	TrackingID        *string   `json:"trackingId,omitempty"`
	CheckoutSessionID *string   `json:"checkoutSessionId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:                o.ID,
		CustomerEmail:     o.CustomerEmail,
		BookID:            o.BookID,
		OrderStatus:       string(o.Status),
		IsCanceled:        o.IsCanceled,
		PaymentStatus:     o.PaymentStatus,
		TrackingID:        o.TrackingID,
		CheckoutSessionID: o.CheckoutSessionID,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func toOrderResponses(orders []*domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

type createOrderRequest struct {
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	BookID        string `json:"bookId" validate:"required"`
}

func (h *OrderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewValidationError("invalid request body"), h.logger)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		rest.WriteError(w, application.NewValidationError(err.Error()), h.logger)
		return
	}

	order, err := h.orders.Create(r.Context(), services.CreateOrderCommand{
		CustomerEmail: req.CustomerEmail,
		BookID:        req.BookID,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) HandleListForCustomer(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		rest.WriteError(w, application.NewUnauthorizedError(), h.logger)
		return
	}

	orders, err := h.orders.ListForCustomer(r.Context(), identity, r.PathValue("email"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toOrderResponses(orders))
}

type updateOrderRequest struct {
	OrderStatus *string `json:"orderStatus"`
	IsCanceled  *bool   `json:"isCanceled"`
}

// HandleUpdateStatus applies a delivery-status or cancellation patch.
// The transition rules live on the order entity; rule violations come
// back as 400s with the rule's message.
func (h *OrderHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewValidationError("invalid request body"), h.logger)
		return
	}

	patch := domain.StatusPatch{IsCanceled: req.IsCanceled}
	if req.OrderStatus != nil {
		status := domain.OrderStatus(*req.OrderStatus)
		patch.Status = &status
	}

	outcome, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, outcome)
}
