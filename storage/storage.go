package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-storefront/models"
)

var (
	// ErrNotFound is returned when a user, product, or order does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("already exists")
)

// Store defines the persistence operations used by the handlers.
// MongoStore implements it against MongoDB; MemoryStore is an in-memory
// implementation used in tests.
type Store interface {
	// CreateUser inserts a new user. Returns ErrDuplicate if the email is
	// already registered. Assigns user.ID when unset.
	CreateUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)

	ListProducts(ctx context.Context) ([]models.Product, error)
	// InsertProduct stores a new product. When product.ID is zero the next
	// id (max existing + 1, or 1 on an empty catalog) is assigned; the
	// assignment is safe under concurrent inserts.
	InsertProduct(ctx context.Context, product *models.Product) error
	// DeleteProduct removes a product by id. Returns ErrNotFound if absent.
	DeleteProduct(ctx context.Context, id int) error

	// GetCart returns the user's sparse quantity map. Missing keys read as 0.
	GetCart(ctx context.Context, userID string) (map[string]int, error)
	// IncrementCartItem atomically adds 1 to the quantity for productID,
	// creating the entry if absent.
	IncrementCartItem(ctx context.Context, userID string, productID int) error
	// DecrementCartItem atomically subtracts 1 from the quantity for
	// productID, clamped at 0: decrementing an absent or zero entry is a
	// no-op, never a negative quantity.
	DecrementCartItem(ctx context.Context, userID string, productID int) error
	ClearCart(ctx context.Context, userID string) error

	InsertOrder(ctx context.Context, order *models.Order) error
	// OrderByIntentID returns the user's most recent order for the given
	// payment intent. Returns ErrNotFound if none exists.
	OrderByIntentID(ctx context.Context, userID, intentID string) (*models.Order, error)
	SetOrderStatus(ctx context.Context, orderID primitive.ObjectID, status, message string) error

	// IdempotentResult looks up the stored result for a previously seen
	// (user, key) pair, so that a retried cart mutation is not reapplied.
	IdempotentResult(ctx context.Context, userID, key string) (string, bool, error)
	// SaveIdempotentResult records the result for a (user, key) pair.
	// Returns ErrDuplicate if the key is already recorded, which lets a
	// mutation reserve its key before applying: of two racing requests
	// with the same key, only one can win the reservation.
	SaveIdempotentResult(ctx context.Context, userID, key, result string) error
	// DeleteIdempotentResult releases a reservation whose mutation failed,
	// so a retry can reapply. Deleting an absent key is a no-op.
	DeleteIdempotentResult(ctx context.Context, userID, key string) error
}
