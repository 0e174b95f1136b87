package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"

	mongoContactIndex = "email_unique"
	mongoHandleIndex  = "username_unique"
)

// accountDoc is the document shape of the users collection. Field names match
// the records written by the legacy Node service so existing data is
// readable without a migration.
type accountDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Email      string             `bson:"email"`
	Username   string             `bson:"username"`
	Password   string             `bson:"password"`
	Currencies []entryDoc         `bson:"currencies"`
	CreatedAt  time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt  time.Time          `bson:"updatedAt,omitempty"`
}

type entryDoc struct {
	Currency string  `bson:"currency"`
	Amount   float64 `bson:"amount"`
}

// MongoStore persists accounts to a MongoDB database.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a MongoStore over db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// EnsureIndexes creates the unique indexes on email and username that back up
// the duplicate checks made at registration.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(mongoContactIndex),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(mongoHandleIndex),
		},
	}
	if _, err := s.coll().Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Create implements Store. Sets ID, CreatedAt, UpdatedAt on a.
func (s *MongoStore) Create(ctx context.Context, a *Account) error {
	now := time.Now().UTC()
	doc := toDoc(a)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	res, err := s.coll().InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), mongoContactIndex) {
				return ErrDuplicateContact
			}
			return ErrDuplicateHandle
		}
		return fmt.Errorf("insert account: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetByHandle implements Store.
func (s *MongoStore) GetByHandle(ctx context.Context, handle string) (*Account, error) {
	return s.findOne(ctx, bson.D{{Key: "username", Value: handle}})
}

// GetByContact implements Store.
func (s *MongoStore) GetByContact(ctx context.Context, contact string) (*Account, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: contact}})
}

// Update implements Store. The whole document is replaced in one write.
func (s *MongoStore) Update(ctx context.Context, a *Account) error {
	oid, err := primitive.ObjectIDFromHex(a.ID)
	if err != nil {
		return ErrNotFound
	}

	doc := toDoc(a)
	doc.ID = oid
	doc.UpdatedAt = time.Now().UTC()

	res, err := s.coll().ReplaceOne(ctx, bson.D{{Key: "_id", Value: oid}}, doc)
	if err != nil {
		return fmt.Errorf("replace account: %w", err)
	}
	if res.MatchedCount < 1 {
		return ErrNotFound
	}
	a.UpdatedAt = doc.UpdatedAt
	return nil
}

// Ping implements Store.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) coll() *mongo.Collection {
	return s.db.Collection(usersCollection)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.D) (*Account, error) {
	var doc accountDoc
	if err := s.coll().FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return fromDoc(&doc), nil
}

func toDoc(a *Account) *accountDoc {
	entries := make([]entryDoc, 0, len(a.Entries))
	for _, e := range a.Entries {
		entries = append(entries, entryDoc{Currency: e.Key, Amount: e.Value})
	}
	return &accountDoc{
		Email:      a.Contact,
		Username:   a.Handle,
		Password:   a.SecretHash,
		Currencies: entries,
		CreatedAt:  a.CreatedAt,
	}
}

func fromDoc(d *accountDoc) *Account {
	entries := make([]Entry, 0, len(d.Currencies))
	for _, e := range d.Currencies {
		entries = append(entries, Entry{Key: e.Currency, Value: e.Amount})
	}
	return &Account{
		ID:         d.ID.Hex(),
		Handle:     d.Username,
		Contact:    d.Email,
		SecretHash: d.Password,
		Entries:    entries,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
