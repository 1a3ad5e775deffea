package models

import (
	"time"
)

// Product represents a purchasable catalog item. Products are immutable after
// creation except for deletion; ids are small integers assigned by the store.
type Product struct {
	ID        int       `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Image     string    `bson:"image" json:"image"`
	Category  string    `bson:"category" json:"category"`
	NewPrice  float64   `bson:"new_price" json:"new_price"`
	OldPrice  float64   `bson:"old_price" json:"old_price"`
	Date      time.Time `bson:"date" json:"date"`
	Available bool      `bson:"available" json:"available"`
}
