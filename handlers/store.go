package handlers

import (
	"context"
	"io"
	"time"

	"github.com/kevinaaaquil/bookreview/backend/models"
	"github.com/kevinaaaquil/bookreview/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The handlers depend on these narrow views of *store.DB.

type UserStore interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
}

type BookStore interface {
	InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error)
	CountBooks(ctx context.Context, f store.BookFilter) (int64, error)
	FindBooks(ctx context.Context, f store.BookFilter, skip, limit int64) ([]models.Book, error)
	SearchBooks(ctx context.Context, q string) ([]models.Book, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	SetBookCover(ctx context.Context, id primitive.ObjectID, key string) (string, error)
}

type ReviewStore interface {
	InsertReview(ctx context.Context, review *models.Review) (primitive.ObjectID, error)
	ReviewByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	ReviewByBookAndUser(ctx context.Context, bookID, userID primitive.ObjectID) (*models.Review, error)
	ReviewStats(ctx context.Context, bookID primitive.ObjectID) (store.ReviewStats, error)
	ReviewsForBook(ctx context.Context, bookID primitive.ObjectID, skip, limit int64) ([]models.ReviewSummary, error)
	UpdateReview(ctx context.Context, id, userID primitive.ObjectID, rating *float64, comment *string) (*models.Review, error)
	DeleteReview(ctx context.Context, id, userID primitive.ObjectID) error
}

// CoverStorage holds cover images; *service.S3Service implements it.
type CoverStorage interface {
	Upload(ctx context.Context, prefix, originalFilename string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// TokenIssuer signs session tokens for logged-in users.
type TokenIssuer interface {
	Issue(userID primitive.ObjectID, email string) (string, error)
}
