package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. Pending orders are waiting on payment confirmation;
// succeeded and failed are terminal.
const (
	OrderStatusPending   = "pending"
	OrderStatusSucceeded = "succeeded"
	OrderStatusFailed    = "failed"
)

// OrderItem is a cart line snapshotted at checkout, with the unit price
// that was charged.
type OrderItem struct {
	ProductID int     `bson:"product_id" json:"product_id"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Price     float64 `bson:"price" json:"price"`
}

// Order records one checkout attempt against a payment intent.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	Items           []OrderItem        `bson:"items" json:"items"`
	AmountCents     int64              `bson:"amount_cents" json:"amount_cents"`
	Currency        string             `bson:"currency" json:"currency"`
	PaymentIntentID string             `bson:"payment_intent_id" json:"payment_intent_id"`
	Status          string             `bson:"status" json:"status"`
	Message         string             `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
