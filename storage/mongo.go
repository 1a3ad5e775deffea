package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/models"
)

// Product id assignment retries on duplicate-key before giving up. Each
// retry re-reads the current max id, so a loss to a concurrent insert just
// moves the candidate forward.
const maxIDRetries = 5

// MongoStore implements Store on MongoDB collections.
type MongoStore struct {
	users       *mongo.Collection
	products    *mongo.Collection
	orders      *mongo.Collection
	idempotency *mongo.Collection
}

// NewMongoStore creates a MongoStore over the named database.
func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		users:       db.Collection("users"),
		products:    db.Collection("products"),
		orders:      db.Collection("orders"),
		idempotency: db.Collection("idempotency"),
	}
}

// EnsureIndexes creates the unique indexes the store relies on: user email,
// product id, and the per-user idempotency key.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = s.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = s.idempotency.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// CreateUser inserts a new user, relying on the unique email index.
func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CartData == nil {
		user.CartData = map[string]int{}
	}
	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var user models.User
	err = s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	cursor, err := s.products.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// InsertProduct assigns the next id and inserts. The unique index on id turns
// a race between two concurrent inserts into a duplicate-key error, which is
// retried with a re-read max.
func (s *MongoStore) InsertProduct(ctx context.Context, product *models.Product) error {
	if product.ID != 0 {
		_, err := s.products.InsertOne(ctx, product)
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}

	for attempt := 0; attempt < maxIDRetries; attempt++ {
		id, err := s.nextProductID(ctx)
		if err != nil {
			return err
		}
		product.ID = id
		_, err = s.products.InsertOne(ctx, product)
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		return err
	}
	return ErrDuplicate
}

func (s *MongoStore) nextProductID(ctx context.Context) (int, error) {
	var top models.Product
	opts := options.FindOne().SetSort(bson.D{{Key: "id", Value: -1}})
	err := s.products.FindOne(ctx, bson.M{}, opts).Decode(&top)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return top.ID + 1, nil
}

func (s *MongoStore) DeleteProduct(ctx context.Context, id int) error {
	result, err := s.products.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) GetCart(ctx context.Context, userID string) (map[string]int, error) {
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.CartData == nil {
		return map[string]int{}, nil
	}
	return user.CartData, nil
}

func cartField(productID int) string {
	return "cart_data." + strconv.Itoa(productID)
}

func (s *MongoStore) IncrementCartItem(ctx context.Context, userID string, productID int) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}
	result, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{cartField(productID): 1}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementCartItem only matches when the current quantity is positive, so
// the decrement can never drive a quantity below 0.
func (s *MongoStore) DecrementCartItem(ctx context.Context, userID string, productID int) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}
	result, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid, cartField(productID): bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{cartField(productID): -1}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}
	// Either the quantity was already 0 (clamped no-op) or the user is gone.
	count, err := s.users.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ClearCart(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}
	result, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"cart_data": bson.M{}}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) InsertOrder(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	_, err := s.orders.InsertOne(ctx, order)
	return err
}

func (s *MongoStore) OrderByIntentID(ctx context.Context, userID, intentID string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	var order models.Order
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err = s.orders.FindOne(ctx, bson.M{"user_id": oid, "payment_intent_id": intentID}, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *MongoStore) SetOrderStatus(ctx context.Context, orderID primitive.ObjectID, status, message string) error {
	result, err := s.orders.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"status": status, "message": message}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type idempotencyRecord struct {
	UserID    string    `bson:"user_id"`
	Key       string    `bson:"key"`
	Result    string    `bson:"result"`
	CreatedAt time.Time `bson:"created_at"`
}

func (s *MongoStore) IdempotentResult(ctx context.Context, userID, key string) (string, bool, error) {
	var record idempotencyRecord
	err := s.idempotency.FindOne(ctx, bson.M{"user_id": userID, "key": key}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return record.Result, true, nil
}

func (s *MongoStore) SaveIdempotentResult(ctx context.Context, userID, key, result string) error {
	_, err := s.idempotency.InsertOne(ctx, idempotencyRecord{
		UserID:    userID,
		Key:       key,
		Result:    result,
		CreatedAt: time.Now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoStore) DeleteIdempotentResult(ctx context.Context, userID, key string) error {
	_, err := s.idempotency.DeleteOne(ctx, bson.M{"user_id": userID, "key": key})
	return err
}
