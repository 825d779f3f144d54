package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kevinaaaquil/bookreview/backend/handlers"
	"github.com/kevinaaaquil/bookreview/backend/middleware"
	"github.com/kevinaaaquil/bookreview/backend/models"
	"github.com/kevinaaaquil/bookreview/backend/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for *store.DB with the same matching rules.
type memStore struct {
	mu      sync.Mutex
	users   []*models.User
	books   []*models.Book
	reviews []*models.Review

	// err, when set, is returned by every read so tests can exercise the 500 path.
	err error
	// hideExisting makes the pre-insert duplicate check miss, as a racing request would.
	hideExisting bool
}

func contains(field, sub string) bool {
	return strings.Contains(strings.ToLower(field), strings.ToLower(sub))
}

func (m *memStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return primitive.NilObjectID, store.ErrDuplicate
		}
	}
	c := *user
	c.ID = primitive.NewObjectID()
	m.users = append(m.users, &c)
	return c.ID, nil
}

func (m *memStore) InsertBook(_ context.Context, book *models.Book) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *book
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	m.books = append(m.books, &c)
	return c.ID, nil
}

// matchingBooks returns the matching books newest first, ties in reverse insertion order.
func (m *memStore) matchingBooks(match func(*models.Book) bool) []models.Book {
	out := []models.Book{}
	for i := len(m.books) - 1; i >= 0; i-- {
		if match(m.books[i]) {
			out = append(out, *m.books[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func listMatch(f store.BookFilter) func(*models.Book) bool {
	return func(b *models.Book) bool {
		return contains(b.Author, strings.TrimSpace(f.Author)) && contains(b.Genre, strings.TrimSpace(f.Genre))
	}
}

func (m *memStore) CountBooks(_ context.Context, f store.BookFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.matchingBooks(listMatch(f)))), nil
}

func (m *memStore) FindBooks(_ context.Context, f store.BookFilter, skip, limit int64) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	all := m.matchingBooks(listMatch(f))
	return window(all, skip, limit), nil
}

func (m *memStore) SearchBooks(_ context.Context, q string) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.matchingBooks(func(b *models.Book) bool {
		return contains(b.Title, q) || contains(b.Author, q)
	}), nil
}

func (m *memStore) BookByID(_ context.Context, id primitive.ObjectID) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, b := range m.books {
		if b.ID == id {
			c := *b
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) SetBookCover(_ context.Context, id primitive.ObjectID, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.ID == id {
			prev := b.CoverKey
			b.CoverKey = key
			return prev, nil
		}
	}
	return "", store.ErrNotFound
}

func (m *memStore) InsertReview(_ context.Context, review *models.Review) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.BookID == review.BookID && r.UserID == review.UserID {
			return primitive.NilObjectID, store.ErrDuplicate
		}
	}
	c := *review
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	m.reviews = append(m.reviews, &c)
	return c.ID, nil
}

func (m *memStore) ReviewByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ID == id {
			c := *r
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ReviewByBookAndUser(_ context.Context, bookID, userID primitive.ObjectID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideExisting {
		return nil, store.ErrNotFound
	}
	for _, r := range m.reviews {
		if r.BookID == bookID && r.UserID == userID {
			c := *r
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ReviewStats(_ context.Context, bookID primitive.ObjectID) (store.ReviewStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	var n int64
	for _, r := range m.reviews {
		if r.BookID == bookID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return store.ReviewStats{}, nil
	}
	return store.ReviewStats{AverageRating: sum / float64(n), TotalReviews: n}, nil
}

func (m *memStore) ReviewsForBook(_ context.Context, bookID primitive.ObjectID, skip, limit int64) ([]models.ReviewSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ReviewSummary{}
	for i := len(m.reviews) - 1; i >= 0; i-- {
		if m.reviews[i].BookID == bookID {
			out = append(out, m.reviews[i].Summary())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return window(out, skip, limit), nil
}

func (m *memStore) UpdateReview(_ context.Context, id, userID primitive.ObjectID, rating *float64, comment *string) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ID == id && r.UserID == userID {
			if rating != nil {
				r.Rating = *rating
			}
			if comment != nil {
				r.Comment = *comment
			}
			r.UpdatedAt = time.Now().UTC()
			c := *r
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) DeleteReview(_ context.Context, id, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.reviews {
		if r.ID == id && r.UserID == userID {
			m.reviews = append(m.reviews[:i], m.reviews[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) review(id primitive.ObjectID) *models.Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ID == id {
			c := *r
			return &c
		}
	}
	return nil
}

func (m *memStore) reviewCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reviews)
}

func window[T any](all []T, skip, limit int64) []T {
	if skip >= int64(len(all)) {
		return []T{}
	}
	end := skip + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[skip:end]
}

// memCovers records uploads in memory.
type memCovers struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	n       int
}

func (c *memCovers) Upload(_ context.Context, prefix, originalFilename string, body io.Reader, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	c.n++
	key := fmt.Sprintf("%s%d-%s", prefix, c.n, originalFilename)
	if c.objects == nil {
		c.objects = map[string][]byte{}
	}
	c.objects[key] = data
	return key, nil
}

func (c *memCovers) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *memCovers) PresignedGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://covers.test/" + key, nil
}

type harness struct {
	t      *testing.T
	store  *memStore
	covers *memCovers
	jwt    *middleware.JWT
	router http.Handler
}

func newHarness(t *testing.T, withCovers bool) *harness {
	t.Helper()
	log := logrus.New()
	log.Out = io.Discard
	h := &harness{
		t:     t,
		store: &memStore{},
		jwt:   &middleware.JWT{Secret: []byte("test-secret"), TTL: time.Hour},
	}
	deps := handlers.Deps{
		Users:         h.store,
		Books:         h.store,
		Reviews:       h.store,
		Auth:          h.jwt,
		Tokens:        h.jwt,
		Log:           log,
		MaxCoverBytes: 1 << 20,
	}
	if withCovers {
		h.covers = &memCovers{}
		deps.Covers = h.covers
	}
	h.router = handlers.NewRouter(deps)
	return h
}

// user stores a user and returns its id and a valid bearer token.
func (h *harness) user(name string) (primitive.ObjectID, string) {
	h.t.Helper()
	id, err := h.store.CreateUser(context.Background(), &models.User{Name: name, Email: name + "@example.com"})
	require.NoError(h.t, err)
	token, err := h.jwt.Issue(id, name+"@example.com")
	require.NoError(h.t, err)
	return id, token
}

func (h *harness) book(title, author, genre string, createdAt time.Time) primitive.ObjectID {
	h.t.Helper()
	id, err := h.store.InsertBook(context.Background(), &models.Book{
		Title: title, Author: author, Description: "about " + title, Genre: genre,
		CreatedAt: createdAt, UpdatedAt: createdAt,
	})
	require.NoError(h.t, err)
	return id
}

func (h *harness) review(bookID, userID primitive.ObjectID, rating float64, createdAt time.Time) primitive.ObjectID {
	h.t.Helper()
	id, err := h.store.InsertReview(context.Background(), &models.Review{
		BookID: bookID, UserID: userID, Rating: rating, Comment: "ok", CreatedAt: createdAt, UpdatedAt: createdAt,
	})
	require.NoError(h.t, err)
	return id
}

func (h *harness) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type messageBody struct {
	Message string   `json:"message"`
	Details []string `json:"details"`
}
