package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kevinaaaquil/bookreview/backend/models"
	"github.com/kevinaaaquil/bookreview/backend/store"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var errBadLogin = unauthorized("Invalid email or password")

type AuthHandler struct {
	Users  UserStore
	Tokens TokenIssuer
}

type signupResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, badRequest("Invalid JSON"))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	_, err := h.Users.UserByEmail(r.Context(), email)
	switch {
	case err == nil:
		respondError(w, r, badRequest("User already exists"))
		return
	case !errors.Is(err, store.ErrNotFound):
		respondError(w, r, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, r, errors.Wrap(err, "hash password"))
		return
	}
	user := &models.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	}
	id, err := h.Users.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			err = badRequest("User already exists")
		}
		respondError(w, r, err)
		return
	}
	user.ID = id
	writeJSON(w, http.StatusCreated, signupResponse{Message: "User registered successfully", User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, badRequest("Invalid JSON"))
		return
	}
	user, err := h.Users.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = errBadLogin
		}
		respondError(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(w, r, errBadLogin)
		return
	}
	token, err := h.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		respondError(w, r, errors.Wrap(err, "issue token"))
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}
