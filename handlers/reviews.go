package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kevinaaaquil/bookreview/backend/middleware"
	"github.com/kevinaaaquil/bookreview/backend/models"
	"github.com/kevinaaaquil/bookreview/backend/store"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errAlreadyReviewed = badRequest("You have already reviewed this book.")

type ReviewsHandler struct {
	Books   BookStore
	Reviews ReviewStore
}

type reviewResponse struct {
	Message string         `json:"message"`
	Review  *models.Review `json:"review"`
}

// Create adds the caller's review of a book. A caller gets one review per book; the
// unique index backs up the existence check when two requests race.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, unauthorized("Invalid credentials"))
		return
	}
	bookID, err := pathObjectID(r, "book")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rating == nil {
		respondError(w, r, badRequest("Invalid JSON"))
		return
	}

	if _, err := h.Books.BookByID(r.Context(), bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = notFound("Book not found")
		}
		respondError(w, r, err)
		return
	}
	_, err = h.Reviews.ReviewByBookAndUser(r.Context(), bookID, caller.UserID)
	switch {
	case err == nil:
		respondError(w, r, errAlreadyReviewed)
		return
	case !errors.Is(err, store.ErrNotFound):
		respondError(w, r, err)
		return
	}

	now := time.Now().UTC()
	review := &models.Review{
		BookID:    bookID,
		UserID:    caller.UserID,
		Rating:    *req.Rating,
		Comment:   req.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	reviewID, err := h.Reviews.InsertReview(r.Context(), review)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			err = errAlreadyReviewed
		}
		respondError(w, r, err)
		return
	}
	review.ID = reviewID
	writeJSON(w, http.StatusCreated, reviewResponse{Message: "Review added successfully.", Review: review})
}

// Update overwrites the fields present in the body on a review the caller owns.
func (h *ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, unauthorized("Invalid credentials"))
		return
	}
	reviewID, err := pathObjectID(r, "review")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, badRequest("Invalid JSON"))
		return
	}
	if err := h.checkOwner(r, reviewID, caller, "You can only update your own review"); err != nil {
		respondError(w, r, err)
		return
	}
	review, err := h.Reviews.UpdateReview(r.Context(), reviewID, caller.UserID, req.Rating, req.Comment)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = notFound("Review not found")
		}
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse{Message: "Review updated successfully", Review: review})
}

// Delete permanently removes a review the caller owns.
func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, r, unauthorized("Invalid credentials"))
		return
	}
	reviewID, err := pathObjectID(r, "review")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.checkOwner(r, reviewID, caller, "You can only delete your own review"); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.Reviews.DeleteReview(r.Context(), reviewID, caller.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = notFound("Review not found")
		}
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Review deleted successfully"})
}

func (h *ReviewsHandler) checkOwner(r *http.Request, reviewID primitive.ObjectID, caller middleware.Identity, denied string) error {
	review, err := h.Reviews.ReviewByID(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("Review not found")
		}
		return err
	}
	if !review.OwnedBy(caller.UserID) {
		return forbidden(denied)
	}
	return nil
}
