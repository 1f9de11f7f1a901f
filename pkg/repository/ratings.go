package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrAlreadyRated is returned when a ledger document already exists for the
// (user, product, order) triple. Ratings are create-only.
var ErrAlreadyRated = errors.New("rating already exists for this purchase")

// UserRating is one ledger document: a 1-5 score scoped to the purchase
// occurrence, not to the product globally.
type UserRating struct {
	ID          string    `bson:"_id,omitempty"`
	UserID      string    `bson:"user_id"`
	ProductID   string    `bson:"product_id"`
	OrderNumber string    `bson:"order_number"`
	Rating      int       `bson:"rating"`
	CreatedAt   time.Time `bson:"created_at"`
}

type RatingRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewRatingRepository(cfg *config.MongoDBConfig) (*RatingRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	r := &RatingRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}

	if err := r.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create rating indexes: %w", err)
	}

	return r, nil
}

// The unique compound index is what makes concurrent submissions from two
// sessions safe: the second insert fails instead of overwriting.
func (r *RatingRepository) ensureIndexes(ctx context.Context) error {
	collection := r.database.Collection(r.config.RatingsCollection)
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "product_id", Value: 1},
			{Key: "order_number", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *RatingRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *RatingRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// Get returns (nil, nil) when the user has not rated this purchase.
func (r *RatingRepository) Get(ctx context.Context, userID string, ref models.RatingRef) (*UserRating, error) {
	collection := r.database.Collection(r.config.RatingsCollection)

	filter := bson.M{
		"user_id":      userID,
		"product_id":   ref.ProductID,
		"order_number": ref.OrderNumber,
	}

	var rating UserRating
	err := collection.FindOne(ctx, filter).Decode(&rating)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &rating, nil
}

// Insert creates a ledger document. ErrAlreadyRated is returned when the
// triple was rated before, from this or any other session.
func (r *RatingRepository) Insert(ctx context.Context, rating *UserRating) error {
	collection := r.database.Collection(r.config.RatingsCollection)

	rating.CreatedAt = time.Now()
	if _, err := collection.InsertOne(ctx, rating); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyRated
		}
		return fmt.Errorf("failed to insert rating: %w", err)
	}
	return nil
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        string    `bson:"_id,omitempty"`
	Service   string    `bson:"service"`
	Action    string    `bson:"action"`
	EntityID  string    `bson:"entity_id"`
	Data      bson.M    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *RatingRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	collection := r.database.Collection(r.config.AuditCollection)
	log.CreatedAt = time.Now()
	_, err := collection.InsertOne(ctx, log)
	return err
}

func (r *RatingRepository) GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error) {
	collection := r.database.Collection(r.config.AuditCollection)

	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*AuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}
