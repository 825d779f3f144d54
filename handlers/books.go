package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kevinaaaquil/bookreview/backend/middleware"
	"github.com/kevinaaaquil/bookreview/backend/models"
	"github.com/kevinaaaquil/bookreview/backend/store"
	"github.com/pkg/errors"
)

const (
	defaultBookLimit   = 10
	defaultReviewLimit = 5
)

type BooksHandler struct {
	Users   UserStore
	Books   BookStore
	Reviews ReviewStore
}

type addBookResponse struct {
	Message string       `json:"message"`
	Book    *models.Book `json:"book"`
}

// Add creates a book for an authenticated caller whose account still exists.
func (h *BooksHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, unauthorized("Invalid credentials"))
		return
	}
	if _, err := h.Users.UserByID(r.Context(), id.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = unauthorized("Invalid credentials")
		}
		respondError(w, r, err)
		return
	}
	var req AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, badRequest("Invalid JSON"))
		return
	}
	now := time.Now().UTC()
	book := &models.Book{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Genre:       req.Genre,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	bookID, err := h.Books.InsertBook(r.Context(), book)
	if err != nil {
		respondError(w, r, err)
		return
	}
	book.ID = bookID
	writeJSON(w, http.StatusCreated, addBookResponse{Message: "Added book successfully", Book: book})
}

type bookListResponse struct {
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
	Data       []models.Book `json:"data"`
}

// List pages through books, newest first, optionally filtered by author and genre.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", defaultBookLimit)
	if limit < 1 {
		limit = defaultBookLimit
	}
	limit = clampLimit(limit)
	filter := store.BookFilter{
		Author: r.URL.Query().Get("author"),
		Genre:  r.URL.Query().Get("genre"),
	}

	total, err := h.Books.CountBooks(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	books, err := h.Books.FindBooks(r.Context(), filter, int64((page-1)*limit), int64(limit))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, bookListResponse{
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
		Data:       books,
	})
}

type reviewPage struct {
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"totalPages"`
	Data       []models.ReviewSummary `json:"data"`
}

type bookDetailResponse struct {
	Book          *models.Book `json:"book"`
	AverageRating string       `json:"averageRating"`
	TotalReviews  int64        `json:"totalReviews"`
	Reviews       reviewPage   `json:"reviews"`
}

// Get returns a book with rating statistics over all of its reviews and one page of
// those reviews. The statistics and the page come from separate queries so the
// average never depends on which page is shown.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathObjectID(r, "book")
	if err != nil {
		respondError(w, r, err)
		return
	}
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", defaultReviewLimit)
	if limit < 1 {
		limit = 1
	}
	limit = clampLimit(limit)

	book, err := h.Books.BookByID(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = notFound("Book not found.")
		}
		respondError(w, r, err)
		return
	}
	stats, err := h.Reviews.ReviewStats(r.Context(), bookID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	reviews, err := h.Reviews.ReviewsForBook(r.Context(), bookID, int64((page-1)*limit), int64(limit))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []models.ReviewSummary{}
	}
	writeJSON(w, http.StatusOK, bookDetailResponse{
		Book:          book,
		AverageRating: fmt.Sprintf("%.2f", stats.AverageRating),
		TotalReviews:  stats.TotalReviews,
		Reviews: reviewPage{
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(stats.TotalReviews, limit),
			Data:       reviews,
		},
	})
}

type searchResponse struct {
	Results []models.Book `json:"results"`
}

// Search matches the query against title or author. Unlike List it is unpaginated and
// requires a query.
func (h *BooksHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")
	if strings.TrimSpace(q) == "" {
		respondError(w, r, badRequest("Search query is required"))
		return
	}
	books, err := h.Books.SearchBooks(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: books})
}
