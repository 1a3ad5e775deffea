package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-storefront/models"
	"go-storefront/storage"
	"go-storefront/utils"
)

// UserController handles signup and login.
type UserController struct {
	Store storage.Store
}

// NewUserController creates a new UserController.
func NewUserController(store storage.Store) *UserController {
	return &UserController{Store: store}
}

// Signup registers a new user and returns a session token. The cart starts
// empty; quantities are created lazily on first add.
func (uc *UserController) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Println("Error hashing password:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user := models.User{
		Name:     req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		CartData: map[string]int{},
		Date:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := uc.Store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "existing user found with same email address")
			return
		}
		log.Println("Error creating user:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex())
	if err != nil {
		log.Println("Error generating token:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
	})
}

// Login authenticates a user and returns a session token.
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user, err := uc.Store.UserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "wrong email or password")
			return
		}
		log.Println("Error fetching user:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "wrong email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex())
	if err != nil {
		log.Println("Error generating token:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
	})
}
