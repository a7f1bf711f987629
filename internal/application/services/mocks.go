package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/bookcourier/book-courier-api/internal/infrastructure/persistence/postgres"
	"github.com/jackc/pgx/v5/pgconn"
)

// memStore is an in-memory stand-in for the postgres store used by the
// service tests. One mutex serializes every transaction, and the
// payments map enforces the same transaction-id uniqueness the real
// ledger does.
type memStore struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order
	payments map[string]*domain.Payment
}

func newMemStore() *memStore {
	return &memStore{
		orders:   make(map[string]*domain.Order),
		payments: make(map[string]*domain.Payment),
	}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	if o.TrackingID != nil {
		t := *o.TrackingID
		c.TrackingID = &t
	}
	if o.CheckoutSessionID != nil {
		s := *o.CheckoutSessionID
		c.CheckoutSessionID = &s
	}
	return &c
}

type memOrderRepo struct {
	store *memStore
	// inTx repos run under the transaction's lock and must not retake it.
	inTx bool
}

func (r *memOrderRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memOrderRepo) Create(_ context.Context, order *domain.Order) error {
	defer r.lock()()
	r.store.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	defer r.lock()()
	order, ok := r.store.orders[id]
	if !ok {
		return nil, postgres.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *memOrderRepo) FindAll(_ context.Context) ([]*domain.Order, error) {
	defer r.lock()()
	out := make([]*domain.Order, 0, len(r.store.orders))
	for _, o := range r.store.orders {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (r *memOrderRepo) FindByCustomerEmail(_ context.Context, email string) ([]*domain.Order, error) {
	defer r.lock()()
	var out []*domain.Order
	for _, o := range r.store.orders {
		if o.CustomerEmail == email {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (r *memOrderRepo) Update(_ context.Context, order *domain.Order) (*application.UpdateOutcome, error) {
	defer r.lock()()
	stored, ok := r.store.orders[order.ID]
	if !ok {
		return nil, postgres.ErrOrderNotFound
	}
	next := cloneOrder(order)
	// Tracking ids stick, like the store's COALESCE.
	if stored.TrackingID != nil {
		next.TrackingID = stored.TrackingID
	}
	r.store.orders[order.ID] = next
	return &application.UpdateOutcome{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r *memOrderRepo) SetCheckoutSession(_ context.Context, orderID, sessionID string) error {
	defer r.lock()()
	order, ok := r.store.orders[orderID]
	if !ok {
		return postgres.ErrOrderNotFound
	}
	order.CheckoutSessionID = &sessionID
	return nil
}

func (r *memOrderRepo) FindUnpaidWithSession(_ context.Context, olderThan time.Time, limit int) ([]*domain.Order, error) {
	defer r.lock()()
	var out []*domain.Order
	for _, o := range r.store.orders {
		if o.CheckoutSessionID != nil && o.PaymentStatus != "paid" && o.UpdatedAt.Before(olderThan) {
			out = append(out, cloneOrder(o))
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memOrderRepo) DeleteByBookID(_ context.Context, bookID string) (int64, error) {
	defer r.lock()()
	var n int64
	for id, o := range r.store.orders {
		if o.BookID == bookID {
			delete(r.store.orders, id)
			n++
		}
	}
	return n, nil
}

type memPaymentRepo struct {
	store *memStore
	inTx  bool
}

func (r *memPaymentRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memPaymentRepo) Insert(_ context.Context, payment *domain.Payment) error {
	defer r.lock()()
	if _, exists := r.store.payments[payment.TransactionID]; exists {
		return domain.NewDuplicateTransactionError(payment.TransactionID)
	}
	p := *payment
	r.store.payments[payment.TransactionID] = &p
	return nil
}

func (r *memPaymentRepo) FindByTransactionID(_ context.Context, transactionID string) (*domain.Payment, error) {
	defer r.lock()()
	payment, ok := r.store.payments[transactionID]
	if !ok {
		return nil, postgres.ErrPaymentNotFound
	}
	p := *payment
	return &p, nil
}

// memTx serializes transactions on the store mutex and restores a
// snapshot when the unit of work fails, so a losing confirmation's
// order mutation rolls back exactly like it would in postgres.
type memTx struct {
	store *memStore
}

func (t *memTx) WithTransaction(
	ctx context.Context,
	fn func(ctx context.Context, orders application.OrderRepository, payments application.PaymentRepository) error,
) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	ordersSnap := make(map[string]*domain.Order, len(t.store.orders))
	for id, o := range t.store.orders {
		ordersSnap[id] = cloneOrder(o)
	}
	paymentsSnap := make(map[string]*domain.Payment, len(t.store.payments))
	for id, p := range t.store.payments {
		c := *p
		paymentsSnap[id] = &c
	}

	err := fn(ctx,
		&memOrderRepo{store: t.store, inTx: true},
		&memPaymentRepo{store: t.store, inTx: true},
	)
	if err != nil {
		t.store.orders = ordersSnap
		t.store.payments = paymentsSnap
	}
	return err
}

type memBookRepo struct {
	mu    sync.Mutex
	books map[string]*domain.Book
}

func newMemBookRepo() *memBookRepo {
	return &memBookRepo{books: make(map[string]*domain.Book)}
}

func (r *memBookRepo) Create(_ context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := *book
	r.books[book.ID] = &b
	return nil
}

func (r *memBookRepo) FindByID(_ context.Context, id string) (*domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[id]
	if !ok {
		return nil, postgres.ErrBookNotFound
	}
	b := *book
	return &b, nil
}

func (r *memBookRepo) Find(_ context.Context, filter application.BookFilter) ([]*domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Book
	for _, book := range r.books {
		if filter.LibrarianEmail != "" && book.LibrarianEmail != filter.LibrarianEmail {
			continue
		}
		if filter.SearchText != "" && !matchesSearch(book, filter.SearchText) {
			continue
		}
		b := *book
		out = append(out, &b)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// matchesSearch mirrors the repository's case-insensitive name/email match.
func matchesSearch(book *domain.Book, text string) bool {
	needle := strings.ToLower(text)
	return strings.Contains(strings.ToLower(book.Name), needle) ||
		strings.Contains(strings.ToLower(book.LibrarianEmail), needle)
}

func (r *memBookRepo) Update(_ context.Context, book *domain.Book) (*application.UpdateOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[book.ID]; !ok {
		return nil, postgres.ErrBookNotFound
	}
	b := *book
	r.books[book.ID] = &b
	return &application.UpdateOutcome{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r *memBookRepo) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return 0, nil
	}
	delete(r.books, id)
	return 1, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	u := *user
	r.users[user.ID] = &u
	return nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, postgres.ErrUserNotFound
}

func (r *memUserRepo) FindAll(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, id string, name, role *string) (*application.UpdateOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, postgres.ErrUserNotFound
	}
	if name != nil {
		user.Name = *name
	}
	if role != nil {
		user.Role = *role
	}
	return &application.UpdateOutcome{MatchedCount: 1, ModifiedCount: 1}, nil
}

// stubGateway returns canned sessions and counts calls.
type stubGateway struct {
	mu            sync.Mutex
	session       *application.CheckoutSession
	retrieveErr   error
	createErr     error
	retrieveCalls int
	createCalls   int
}

func (g *stubGateway) CreateCheckoutSession(_ context.Context, req application.CreateSessionRequest) (*application.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	if g.session != nil {
		return g.session, nil
	}
	return &application.CheckoutSession{
		ID:            "cs_test_1",
		URL:           "https://checkout.test/cs_test_1",
		CustomerEmail: req.CustomerEmail,
		AmountTotal:   req.AmountCents,
		Currency:      req.Currency,
		BookID:        req.BookID,
		OrderID:       req.OrderID,
	}, nil
}

func (g *stubGateway) RetrieveCheckoutSession(_ context.Context, _ string) (*application.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retrieveCalls++
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	return g.session, nil
}
