package postgres

import (
	"github.com/bookcourier/book-courier-api/internal/domain"
)

// toDomainOrder: maps db model to domain entity
func toDomainOrder(m OrderModel) *domain.Order {
	return domain.Reconstitute(
		m.ID,
		m.CustomerEmail,
		m.BookID,
		domain.OrderStatus(m.OrderStatus),
		m.IsCanceled,
		m.PaymentStatus,
		m.TrackingID,
		m.CheckoutSessionID,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// toOrderModel: maps domain entity to db model
func toOrderModel(o *domain.Order) *OrderModel {
	return &OrderModel{
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

func toDomainPayment(m PaymentModel) *domain.Payment {
	return domain.ReconstitutePayment(
		m.ID,
		m.TransactionID,
		m.OrderID,
		m.BookID,
		m.CustomerEmail,
		m.AmountCents,
		m.Currency,
		m.PaymentStatus,
		m.TrackingID,
		m.PaidAt,
	)
}

func toPaymentModel(p *domain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		OrderID:       p.OrderID,
		BookID:        p.BookID,
		CustomerEmail: p.CustomerEmail,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		PaymentStatus: p.PaymentStatus,
		TrackingID:    p.TrackingID,
		PaidAt:        p.PaidAt,
	}
}

func toDomainBook(m BookModel) *domain.Book {
	return &domain.Book{
		ID:             m.ID,
		Name:           m.Name,
		Author:         m.Author,
		LibrarianEmail: m.LibrarianEmail,
		PriceCents:     m.PriceCents,
		CoverURL:       m.CoverURL,
		Description:    m.Description,
		CreatedAt:      m.CreatedAt,
	}
}

func toDomainUser(m UserModel) *domain.User {
	return &domain.User{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
}
