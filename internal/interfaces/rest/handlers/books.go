package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/application/services"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/bookcourier/book-courier-api/internal/interfaces/rest"
	"github.com/go-playground/validator"
)

type BookService interface {
	Create(ctx context.Context, cmd services.CreateBookCommand) (*domain.Book, error)
	Get(ctx context.Context, id string) (*domain.Book, error)
	List(ctx context.Context, filter application.BookFilter) ([]*domain.Book, error)
	Update(ctx context.Context, book *domain.Book) (*application.UpdateOutcome, error)
	Delete(ctx context.Context, id string) (*services.BookDeletion, error)
}

type BookHandler struct {
	books    BookService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewBookHandler(books BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		books:    books,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *BookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /books", h.HandleCreate)
	mux.HandleFunc("GET /books", h.HandleList)
	mux.HandleFunc("GET /books/{id}", h.HandleGet)
	mux.HandleFunc("PATCH /books/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /books/{id}", h.HandleDelete)
}

type bookResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Author         string    `json:"author"`
	LibrarianEmail string    `json:"librarianEmail"`
	Price          float64   `json:"price"`
	CoverURL       string    `json:"coverUrl,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toBookResponse(b *domain.Book) bookResponse {
	return bookResponse{
		ID:             b.ID,
		Name:           b.Name,
		Author:         b.Author,
		LibrarianEmail: b.LibrarianEmail,
		Price:          float64(b.PriceCents) / 100,
		CoverURL:       b.CoverURL,
		Description:    b.Description,
		CreatedAt:      b.CreatedAt,
	}
}

type createBookRequest struct {
	Name           string  `json:"name" validate:"required"`
	Author         string  `json:"author"`
	LibrarianEmail string  `json:"librarianEmail" validate:"required,email"`
	Price          float64 `json:"price" validate:"gte=0"`
	CoverURL       string  `json:"coverUrl"`
	Description    string  `json:"description"`
}

func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewValidationError("invalid request body"), h.logger)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		rest.WriteError(w, application.NewValidationError(err.Error()), h.logger)
		return
	}

	book, err := h.books.Create(r.Context(), services.CreateBookCommand{
		Name:           req.Name,
		Author:         req.Author,
		LibrarianEmail: req.LibrarianEmail,
		PriceCents:     int64(math.Round(req.Price * 100)),
		CoverURL:       req.CoverURL,
		Description:    req.Description,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, toBookResponse(book))
}

// HandleList returns the catalog, optionally filtered by the email and
// search query parameters and capped by limit.
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := application.BookFilter{
		LibrarianEmail: query.Get("email"),
		SearchText:     query.Get("search"),
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			rest.WriteError(w, application.NewValidationError("limit must be a non-negative integer"), h.logger)
			return
		}
		filter.Limit = limit
	}

	books, err := h.books.List(r.Context(), filter)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	rest.WriteJSON(w, http.StatusOK, out)
}

func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toBookResponse(book))
}

type updateBookRequest struct {
	Name        *string  `json:"name"`
	Author      *string  `json:"author"`
	Price       *float64 `json:"price"`
	CoverURL    *string  `json:"coverUrl"`
	Description *string  `json:"description"`
}

func (h *BookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewValidationError("invalid request body"), h.logger)
		return
	}

	book, err := h.books.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	if req.Name != nil {
		book.Name = *req.Name
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Price != nil {
		if *req.Price < 0 {
			rest.WriteError(w, application.NewValidationError("price must not be negative"), h.logger)
			return
		}
		book.PriceCents = int64(math.Round(*req.Price * 100))
	}
	if req.CoverURL != nil {
		book.CoverURL = *req.CoverURL
	}
	if req.Description != nil {
		book.Description = *req.Description
	}

	outcome, err := h.books.Update(r.Context(), book)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, outcome)
}

func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := h.books.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, result)
}
