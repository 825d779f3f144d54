package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/bookreview/backend/middleware"
	"github.com/sirupsen/logrus"
)

// Deps is everything the router needs. Covers and Limiter may be nil.
type Deps struct {
	Users         UserStore
	Books         BookStore
	Reviews       ReviewStore
	Covers        CoverStorage
	Auth          middleware.Authenticator
	Tokens        TokenIssuer
	Limiter       *middleware.FixedWindowLimiter
	Log           logrus.FieldLogger
	MaxCoverBytes int64
}

func NewRouter(d Deps) http.Handler {
	authHandler := &AuthHandler{Users: d.Users, Tokens: d.Tokens}
	booksHandler := &BooksHandler{Users: d.Users, Books: d.Books, Reviews: d.Reviews}
	reviewsHandler := &ReviewsHandler{Books: d.Books, Reviews: d.Reviews}
	coverHandler := &CoverHandler{Books: d.Books, Covers: d.Covers, MaxBytes: d.MaxCoverBytes}

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method not allowed"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Welcome to the Book-Review API"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(d.Limiter, "auth"))
		r.With(middleware.Validate[SignupRequest]()).Post("/signup", authHandler.Signup)
		r.With(middleware.Validate[LoginRequest]()).Post("/login", authHandler.Login)
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", booksHandler.List)
		r.Get("/search", booksHandler.Search)
		r.Get("/{id}", booksHandler.Get)
		r.Get("/{id}/cover", coverHandler.Get)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Auth))
			r.Use(middleware.RateLimit(d.Limiter, "write"))
			r.With(middleware.Validate[AddBookRequest]()).Post("/", booksHandler.Add)
			r.With(middleware.Validate[CreateReviewRequest]()).Post("/{id}/reviews", reviewsHandler.Create)
			// Older clients post reviews under the doubled prefix.
			r.With(middleware.Validate[CreateReviewRequest]()).Post("/books/{id}/reviews", reviewsHandler.Create)
			r.With(middleware.Validate[UpdateReviewRequest]()).Put("/reviews/{id}", reviewsHandler.Update)
			r.Delete("/reviews/{id}", reviewsHandler.Delete)
			r.Post("/{id}/cover", coverHandler.Upload)
		})
	})

	return r
}
