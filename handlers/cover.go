package handlers

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/kevinaaaquil/bookreview/backend/middleware"
	"github.com/kevinaaaquil/bookreview/backend/store"
	"github.com/pkg/errors"
)

const (
	coverURLExpiry = 15 * time.Minute
	// multipartOverhead is allowed on top of MaxBytes for boundaries and part headers.
	multipartOverhead = 64 << 10
)

var errCoverTooLarge = &APIError{Status: http.StatusRequestEntityTooLarge, Message: "Cover image is too large"}

// coverExtensions lists the sniffed content types accepted as covers.
var coverExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// CoverHandler stores book cover images in object storage. A nil Covers disables it.
type CoverHandler struct {
	Books    BookStore
	Covers   CoverStorage
	MaxBytes int64
}

type coverURLResponse struct {
	URL string `json:"url"`
}

// Upload replaces a book's cover with the multipart "cover" file.
func (h *CoverHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.IdentityFromContext(r.Context()); !ok {
		respondError(w, r, unauthorized("Invalid credentials"))
		return
	}
	if h.Covers == nil {
		respondError(w, r, errUnavailable)
		return
	}
	bookID, err := pathObjectID(r, "book")
	if err != nil {
		respondError(w, r, err)
		return
	}
	book, err := h.Books.BookByID(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = notFound("Book not found")
		}
		respondError(w, r, err)
		return
	}

	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, errCoverTooLarge)
			return
		}
		respondError(w, r, badRequest("Failed to parse multipart form"))
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		respondError(w, r, badRequest("Missing cover file"))
		return
	}
	defer file.Close()
	if h.MaxBytes > 0 && header.Size > h.MaxBytes {
		respondError(w, r, errCoverTooLarge)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, errors.Wrap(err, "read cover"))
		return
	}
	contentType := http.DetectContentType(data)
	ext, ok := coverExtensions[contentType]
	if !ok {
		respondError(w, r, badRequest("Cover must be a JPEG, PNG, WebP or GIF image"))
		return
	}

	key, err := h.Covers.Upload(r.Context(), "covers/"+book.ID.Hex()+"/", "cover"+ext, bytes.NewReader(data), contentType)
	if err != nil {
		respondError(w, r, errors.Wrap(err, "upload cover"))
		return
	}
	prev, err := h.Books.SetBookCover(r.Context(), book.ID, key)
	if err != nil {
		_ = h.Covers.Delete(r.Context(), key)
		respondError(w, r, err)
		return
	}
	if prev != "" && prev != key {
		if err := h.Covers.Delete(r.Context(), prev); err != nil {
			middleware.LoggerFromContext(r.Context()).WithError(err).WithField("key", prev).Warn("stale cover not removed")
		}
	}
	middleware.LoggerFromContext(r.Context()).WithField("file", header.Filename).Debug("cover stored")
	writeJSON(w, http.StatusOK, messageResponse{Message: "Cover uploaded successfully"})
}

// Get returns a short-lived download URL for the book's cover.
func (h *CoverHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Covers == nil {
		respondError(w, r, errUnavailable)
		return
	}
	bookID, err := pathObjectID(r, "book")
	if err != nil {
		respondError(w, r, err)
		return
	}
	book, err := h.Books.BookByID(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = notFound("Book not found")
		}
		respondError(w, r, err)
		return
	}
	if !book.HasCover() {
		respondError(w, r, notFound("No cover"))
		return
	}
	url, err := h.Covers.PresignedGetURL(r.Context(), book.CoverKey, coverURLExpiry)
	if err != nil {
		respondError(w, r, errors.Wrap(err, "presign cover"))
		return
	}
	writeJSON(w, http.StatusOK, coverURLResponse{URL: url})
}
