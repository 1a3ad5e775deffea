package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/storage"
)

// CartController handles cart mutations and reads. All endpoints require a
// valid session token; mutations persist synchronously before responding.
type CartController struct {
	Store storage.Store
}

// NewCartController creates a new CartController.
func NewCartController(store storage.Store) *CartController {
	return &CartController{Store: store}
}

// AddToCart increments the quantity for an item by 1, creating the entry if
// absent. Responds with plain text "Added".
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	cc.mutate(w, r, "Added", cc.Store.IncrementCartItem)
}

// RemoveFromCart decrements the quantity for an item by 1, clamped at 0.
// Responds with plain text "Removed".
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cc.mutate(w, r, "Removed", cc.Store.DecrementCartItem)
}

// mutate is the shared path for both cart mutations: decode, replay a seen
// Idempotency-Key without reapplying, apply the delta, remember the result.
func (cc *CartController) mutate(w http.ResponseWriter, r *http.Request, reply string, apply func(context.Context, string, int) error) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
		return
	}

	var req models.CartItemRequest
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

	// The key is reserved before the delta is applied: of two racing
	// requests with the same key, only one wins the reservation, the other
	// replays the stored result without reapplying.
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		err := cc.Store.SaveIdempotentResult(ctx, userID, idemKey, reply)
		if errors.Is(err, storage.ErrDuplicate) {
			result, seen, err := cc.Store.IdempotentResult(ctx, userID, idemKey)
			if err != nil {
				log.Println("Error reading idempotency record:", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !seen {
				result = reply
			}
			w.Write([]byte(result))
			return
		}
		if err != nil {
			log.Println("Error saving idempotency record:", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	if err := apply(ctx, userID, req.ItemID); err != nil {
		if idemKey != "" {
			// Release the reservation so a retry can reapply.
			if derr := cc.Store.DeleteIdempotentResult(ctx, userID, idemKey); derr != nil {
				log.Println("Error releasing idempotency record:", derr)
			}
		}
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Println("Error updating cart:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Write([]byte(reply))
}

// GetCart returns the user's full quantity mapping.
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	cart, err := cc.Store.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Println("Error fetching cart:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, cart)
}
