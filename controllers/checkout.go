package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/payment"
	"go-storefront/storage"
	"go-storefront/utils"
)

// All charges use a fixed currency.
const checkoutCurrency = "usd"

// CheckoutController orchestrates a checkout attempt: it opens a payment
// intent for the cart total and, once the client has confirmed the payment
// with the processor, drives the order to its terminal state.
type CheckoutController struct {
	Store    storage.Store
	Payments payment.Client
	Mailer   utils.Mailer
}

// NewCheckoutController creates a new CheckoutController.
func NewCheckoutController(store storage.Store, payments payment.Client, mailer utils.Mailer) *CheckoutController {
	return &CheckoutController{Store: store, Payments: payments, Mailer: mailer}
}

// CreatePaymentIntent opens a payment intent and returns its client secret.
// With a valid auth-token the amount is recomputed from the live cart and
// catalog at request time and a pending order is recorded; without one the
// client's amount is relayed as-is. A zero amount is permitted.
func (kc *CheckoutController) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	amount := req.Amount
	var user *models.User
	var items []models.OrderItem

	if tokenStr := r.Header.Get("auth-token"); tokenStr != "" {
		claims, err := utils.ParseToken(tokenStr)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
			return
		}
		user, err = kc.Store.UserByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			log.Println("Error fetching user:", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		products, err := kc.Store.ListProducts(ctx)
		if err != nil {
			log.Println("Error fetching products:", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		amount, items = cartTotalCents(user.CartData, products)
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey == "" {
		idemKey = uuid.NewString()
	}

	intent, err := kc.Payments.CreateIntent(ctx, amount, checkoutCurrency, idemKey)
	if err != nil {
		log.Println("Error creating payment intent:", err)
		writeError(w, http.StatusBadGateway, "payment processor error")
		return
	}

	if user != nil {
		order := &models.Order{
			UserID:          user.ID,
			Items:           items,
			AmountCents:     amount,
			Currency:        checkoutCurrency,
			PaymentIntentID: intent.ID,
			Status:          models.OrderStatusPending,
			CreatedAt:       time.Now(),
		}
		if err := kc.Store.InsertOrder(ctx, order); err != nil {
			log.Println("Error recording order:", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"clientSecret": intent.ClientSecret,
	})
}

// ConfirmPayment checks the intent's status with the processor and settles
// the order: succeeded clears the cart and sends the confirmation mail,
// anything else marks the order failed. A failed attempt can be retried by
// opening a new intent.
func (kc *CheckoutController) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
		return
	}

	var req models.ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := kc.Store.OrderByIntentID(ctx, userID, req.PaymentIntentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Println("Error fetching order:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Succeeded and failed are terminal. A replayed confirmation of a
	// settled order returns the stored outcome without repeating the cart
	// clear or the confirmation mail.
	if order.Status != models.OrderStatusPending {
		respondOrderOutcome(w, order)
		return
	}

	intent, err := kc.Payments.GetIntent(ctx, req.PaymentIntentID)
	if err != nil {
		log.Println("Error retrieving payment intent:", err)
		writeError(w, http.StatusBadGateway, "payment processor error")
		return
	}

	// An in-flight status (processing, requires_action, ...) settles
	// nothing: the order stays pending and the client confirms again once
	// the processor has an answer.
	if !payment.IsTerminal(intent.Status) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "payment is still processing",
			"order":   order,
		})
		return
	}

	if intent.Status != payment.StatusSucceeded {
		message := intent.Message
		if message == "" {
			message = "payment not completed"
		}
		if err := kc.Store.SetOrderStatus(ctx, order.ID, models.OrderStatusFailed, message); err != nil {
			log.Println("Error updating order:", err)
		}
		order.Status = models.OrderStatusFailed
		order.Message = message
		respondOrderOutcome(w, order)
		return
	}

	if err := kc.Store.SetOrderStatus(ctx, order.ID, models.OrderStatusSucceeded, ""); err != nil {
		log.Println("Error updating order:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	order.Status = models.OrderStatusSucceeded
	order.Message = ""

	if err := kc.Store.ClearCart(ctx, userID); err != nil {
		log.Println("Error clearing cart:", err)
	}

	user, err := kc.Store.UserByID(ctx, userID)
	if err == nil {
		if err := kc.Mailer.SendOrderConfirmation(user.Email, *order); err != nil {
			log.Println("Error sending order confirmation:", err)
		}
	}

	respondOrderOutcome(w, order)
}

// respondOrderOutcome reports an order's settled (or replayed) state.
func respondOrderOutcome(w http.ResponseWriter, order *models.Order) {
	body := map[string]interface{}{
		"success": order.Status == models.OrderStatusSucceeded,
		"order":   order,
	}
	if order.Message != "" {
		body["message"] = order.Message
	}
	writeJSON(w, http.StatusOK, body)
}

// cartTotalCents computes Σ qty × new_price over entries with qty > 0, in
// minor currency units, plus the order lines it covers. Cart entries whose
// product is missing from the catalog contribute nothing.
func cartTotalCents(cart map[string]int, products []models.Product) (int64, []models.OrderItem) {
	byID := make(map[int]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var total float64
	items := []models.OrderItem{}
	for key, qty := range cart {
		if qty <= 0 {
			continue
		}
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		product, ok := byID[id]
		if !ok {
			log.Printf("cart references unknown product id %d", id)
			continue
		}
		total += product.NewPrice * float64(qty)
		items = append(items, models.OrderItem{
			ProductID: id,
			Quantity:  qty,
			Price:     product.NewPrice,
		})
	}
	return int64(math.Round(total * 100)), items
}
