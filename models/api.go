package models

import "errors"

// Request schemas for the REST surface. Every body is decoded into one of
// these and validated before any state is touched.

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *SignupRequest) Validate() error {
	if r.Username == "" {
		return errors.New("username is required")
	}
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// AddProductRequest is the body of POST /addproduct. Available defaults to
// true when omitted, matching the catalog schema default.
type AddProductRequest struct {
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Category  string  `json:"category"`
	NewPrice  float64 `json:"new_price"`
	OldPrice  float64 `json:"old_price"`
	Available *bool   `json:"available"`
}

func (r *AddProductRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Image == "" {
		return errors.New("image is required")
	}
	if r.Category == "" {
		return errors.New("category is required")
	}
	if r.NewPrice < 0 || r.OldPrice < 0 {
		return errors.New("price must not be negative")
	}
	return nil
}

// RemoveProductRequest is the body of POST /removeproduct.
type RemoveProductRequest struct {
	ID int `json:"id"`
}

func (r *RemoveProductRequest) Validate() error {
	if r.ID < 1 {
		return errors.New("id must be a positive integer")
	}
	return nil
}

// CartItemRequest is the body of POST /addtocart and POST /removefromcart.
type CartItemRequest struct {
	ItemID int `json:"itemId"`
}

func (r *CartItemRequest) Validate() error {
	if r.ItemID < 1 {
		return errors.New("itemId must be a positive integer")
	}
	return nil
}

// PaymentIntentRequest is the body of POST /create-payment-intent. Amount is
// in integer minor-currency units. Zero is allowed; an empty cart may still
// open a payment intent.
type PaymentIntentRequest struct {
	Amount int64 `json:"amount"`
}

func (r *PaymentIntentRequest) Validate() error {
	if r.Amount < 0 {
		return errors.New("amount must not be negative")
	}
	return nil
}

// ConfirmPaymentRequest is the body of POST /confirmpayment.
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

func (r *ConfirmPaymentRequest) Validate() error {
	if r.PaymentIntentID == "" {
		return errors.New("payment_intent_id is required")
	}
	return nil
}
