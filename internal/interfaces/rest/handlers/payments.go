// Package handlers implements the HTTP endpoints of the courier API.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/application/services"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/bookcourier/book-courier-api/internal/interfaces/rest"
	"github.com/go-playground/validator"
)

type ConfirmService interface {
	Confirm(ctx context.Context, sessionRef string) (*services.ConfirmationResult, error)
}

type CheckoutService interface {
	CreateSession(ctx context.Context, cmd services.CreateCheckoutCommand) (string, error)
}

type PaymentHandler struct {
	confirm  ConfirmService
	checkout CheckoutService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewPaymentHandler(confirm ConfirmService, checkout CheckoutService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		confirm:  confirm,
		checkout: checkout,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("PATCH /payment-success", h.HandlePaymentSuccess)
	mux.HandleFunc("POST /confirming-payment-session", h.HandleCreateSession)
}

// paymentReceipt is the ledger entry as it appears in responses.
type paymentReceipt struct {
	TransactionID string    `json:"transactionId"`
	OrderID       string    `json:"orderId"`
	BookID        string    `json:"bookId"`
	CustomerEmail string    `json:"customerEmail"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentStatus string    `json:"paymentStatus"`
	TrackingID    string    `json:"trackingId"`
	PaidAt        time.Time `json:"paidAt"`
}

func toPaymentReceipt(p *domain.Payment) paymentReceipt {
	return paymentReceipt{
		TransactionID: p.TransactionID,
		OrderID:       p.OrderID,
		BookID:        p.BookID,
		CustomerEmail: p.CustomerEmail,
		Amount:        p.AmountCents,
		Currency:      p.Currency,
		PaymentStatus: p.PaymentStatus,
		TrackingID:    p.TrackingID,
		PaidAt:        p.PaidAt,
	}
}

type alreadyProcessedResponse struct {
	Message       string `json:"message"`
	TransactionID string `json:"transactionId"`
	TrackingID    string `json:"trackingId"`
}

type confirmedResponse struct {
	Success       bool                       `json:"success"`
	ModifyParcel  *application.UpdateOutcome `json:"modifyParcel"`
	TrackingID    string                     `json:"trackingId"`
	TransactionID string                     `json:"transactionId"`
	PaymentInfo   paymentReceipt             `json:"paymentInfo"`
}

// HandlePaymentSuccess settles the checkout session named by the
// session_id query parameter. Replays of the same transaction get the
// originally minted tracking id back.
func (h *PaymentHandler) HandlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	result, err := h.confirm.Confirm(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	switch {
	case result.AlreadyProcessed:
		rest.WriteJSON(w, http.StatusOK, alreadyProcessedResponse{
			Message:       "already exists",
			TransactionID: result.TransactionID,
			TrackingID:    result.TrackingID,
		})
	case result.Success:
		rest.WriteJSON(w, http.StatusOK, confirmedResponse{
			Success:       true,
			ModifyParcel:  result.OrderOutcome,
			TrackingID:    result.TrackingID,
			TransactionID: result.TransactionID,
			PaymentInfo:   toPaymentReceipt(result.Payment),
		})
	default:
		rest.WriteJSON(w, http.StatusOK, map[string]bool{"success": false})
	}
}

type createSessionRequest struct {
	Price         float64 `json:"price" validate:"required,gt=0"`
	BookName      string  `json:"bookName" validate:"required"`
	BookID        string  `json:"bookId" validate:"required"`
	OrderID       string  `json:"orderId" validate:"required"`
	CustomerEmail string  `json:"customerEmail" validate:"required,email"`
}

// HandleCreateSession opens a checkout session and returns the URL the
// storefront should redirect the customer to.
func (h *PaymentHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewValidationError("invalid request body"), h.logger)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		rest.WriteError(w, application.NewValidationError(err.Error()), h.logger)
		return
	}

	url, err := h.checkout.CreateSession(r.Context(), services.CreateCheckoutCommand{
		OrderID:       req.OrderID,
		BookID:        req.BookID,
		BookName:      req.BookName,
		AmountCents:   int64(math.Round(req.Price * 100)),
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
