package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a shopper account. CartData is a sparse mapping from
// product id (stringified, since document keys are strings) to quantity;
// a missing key reads as quantity 0.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"`
	CartData map[string]int     `bson:"cart_data" json:"cartData"`
	Date     time.Time          `bson:"date" json:"date"`
}
