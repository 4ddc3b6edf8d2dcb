// Package mongodb implements storage interfaces using MongoDB
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goodstudio/spring-projects-spring-ws/internal/storage"
	"github.com/goodstudio/spring-projects-spring-ws/pkg/authn"
)

// Store implements storage.UserStore using MongoDB
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	users  *mongo.Collection
}

var _ storage.UserStore = (*Store)(nil)

// Config holds MongoDB connection settings
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// NewStore creates a new MongoDB store
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetConnectTimeout(cfg.Timeout).SetServerSelectionTimeout(cfg.Timeout)
	}

	// Connect to MongoDB
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "users"
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client: client,
		db:     db,
		users:  db.Collection(collection),
	}

	// Create indexes
	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("creating indexes: %w", err)
	}

	return s, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "authorities", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating user indexes: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// UserStore implementation

func (s *Store) GetUser(ctx context.Context, username string) (*storage.User, error) {
	var user storage.User
	err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *storage.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", storage.ErrUserExists, user.Username)
	}
	return err
}

func (s *Store) SaveUser(ctx context.Context, user *storage.User) error {
	now := time.Now()
	user.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"password":    user.Password,
			"authorities": user.Authorities,
			"disabled":    user.Disabled,
			"locked":      user.Locked,
			"updated_at":  user.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"username": user.Username}, update, options.Update().SetUpsert(true))
	return err
}

func (s *Store) DeleteUser(ctx context.Context, username string) error {
	_, err := s.users.DeleteOne(ctx, bson.M{"username": username})
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	cursor, err := s.users.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"username": 1}).SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var names []string
	for cursor.Next(ctx) {
		var doc struct {
			Username string `bson:"username"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		names = append(names, doc.Username)
	}
	return names, cursor.Err()
}

// LoadUserByUsername implements authn.UserDetailsService
func (s *Store) LoadUserByUsername(ctx context.Context, username string) (*authn.UserDetails, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("loading user %q: %w", username, err)
	}
	if user == nil {
		return nil, authn.ErrUserNotFound
	}
	return user.UserDetails(), nil
}
