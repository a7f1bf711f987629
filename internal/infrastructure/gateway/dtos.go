package gateway

import (
	"github.com/bookcourier/book-courier-api/internal/application"
)

type productData struct {
	Name string `json:"name"`
}

type priceData struct {
	Currency    string      `json:"currency"`
	UnitAmount  int64       `json:"unit_amount"`
	ProductData productData `json:"product_data"`
}

type lineItem struct {
	PriceData priceData `json:"price_data"`
	Quantity  int       `json:"quantity"`
}

type sessionMetadata struct {
	BookID  string `json:"bookId"`
	OrderID string `json:"orderId"`
}

type createSessionRequest struct {
	Mode          string          `json:"mode"`
	LineItems     []lineItem      `json:"line_items"`
	CustomerEmail string          `json:"customer_email"`
	Metadata      sessionMetadata `json:"metadata"`
	SuccessURL    string          `json:"success_url"`
	CancelURL     string          `json:"cancel_url"`
}

type checkoutSessionResponse struct {
	ID            string          `json:"id"`
	URL           string          `json:"url"`
	PaymentIntent string          `json:"payment_intent"`
	PaymentStatus string          `json:"payment_status"`
	AmountTotal   int64           `json:"amount_total"`
	Currency      string          `json:"currency"`
	CustomerEmail string          `json:"customer_email"`
	Metadata      sessionMetadata `json:"metadata"`
}

func (r *checkoutSessionResponse) toSession() *application.CheckoutSession {
	return &application.CheckoutSession{
		ID:            r.ID,
		URL:           r.URL,
		TransactionID: r.PaymentIntent,
		PaymentStatus: r.PaymentStatus,
		AmountTotal:   r.AmountTotal,
		Currency:      r.Currency,
		CustomerEmail: r.CustomerEmail,
		BookID:        r.Metadata.BookID,
		OrderID:       r.Metadata.OrderID,
	}
}
