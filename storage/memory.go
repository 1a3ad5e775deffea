package storage

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-storefront/models"
)

// MemoryStore is an in-memory implementation of Store, safe for concurrent
// use. It backs the test suite and local development without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	emails   map[string]string
	products map[int]models.Product
	orders   map[string]*models.Order
	idem     map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		emails:   make(map[string]string),
		products: make(map[int]models.Product),
		orders:   make(map[string]*models.Order),
		idem:     make(map[string]string),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[user.Email]; exists {
		return ErrDuplicate
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CartData == nil {
		user.CartData = map[string]int{}
	}
	copied := *user
	copied.CartData = copyCart(user.CartData)
	s.users[user.ID.Hex()] = &copied
	s.emails[user.Email] = user.ID.Hex()
	return nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	return s.userCopy(id)
}

func (s *MemoryStore) UserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userCopy(id)
}

func (s *MemoryStore) userCopy(id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	copied.CartData = copyCart(user.CartData)
	return &copied, nil
}

func (s *MemoryStore) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	return products, nil
}

func (s *MemoryStore) InsertProduct(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == 0 {
		max := 0
		for id := range s.products {
			if id > max {
				max = id
			}
		}
		product.ID = max + 1
	} else if _, exists := s.products[product.ID]; exists {
		return ErrDuplicate
	}
	s.products[product.ID] = *product
	return nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) GetCart(_ context.Context, userID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCart(user.CartData), nil
}

func (s *MemoryStore) IncrementCartItem(_ context.Context, userID string, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.CartData[strconv.Itoa(productID)]++
	return nil
}

func (s *MemoryStore) DecrementCartItem(_ context.Context, userID string, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if key := strconv.Itoa(productID); user.CartData[key] > 0 {
		user.CartData[key]--
	}
	return nil
}

func (s *MemoryStore) ClearCart(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.CartData = map[string]int{}
	return nil
}

func (s *MemoryStore) InsertOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	copied := *order
	s.orders[order.ID.Hex()] = &copied
	return nil
}

func (s *MemoryStore) OrderByIntentID(_ context.Context, userID, intentID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Order
	for _, order := range s.orders {
		if order.UserID.Hex() != userID || order.PaymentIntentID != intentID {
			continue
		}
		if latest == nil || order.CreatedAt.After(latest.CreatedAt) {
			latest = order
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (s *MemoryStore) SetOrderStatus(_ context.Context, orderID primitive.ObjectID, status, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID.Hex()]
	if !ok {
		return ErrNotFound
	}
	order.Status = status
	order.Message = message
	return nil
}

func (s *MemoryStore) IdempotentResult(_ context.Context, userID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.idem[userID+"\x00"+key]
	return result, ok, nil
}

func (s *MemoryStore) SaveIdempotentResult(_ context.Context, userID, key, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.idem[userID+"\x00"+key]; exists {
		return ErrDuplicate
	}
	s.idem[userID+"\x00"+key] = result
	return nil
}

func (s *MemoryStore) DeleteIdempotentResult(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.idem, userID+"\x00"+key)
	return nil
}

func copyCart(cart map[string]int) map[string]int {
	copied := make(map[string]int, len(cart))
	for k, v := range cart {
		copied[k] = v
	}
	return copied
}
