package profilestore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gastruloid/internal/models"
)

const connectTimeout = 10 * time.Second

// Connect opens and pings a MongoDB client
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to MongoDB")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "failed to ping MongoDB")
	}
	return client, nil
}

// MongoStore keeps profiles in a collection keyed by profile name
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore uses the given database and collection of an open client
func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{coll: client.Database(database).Collection(collection)}
}

func (s *MongoStore) Create(ctx context.Context, p *models.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	_, err := s.coll.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrap(ErrProfileExists, p.Name)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to insert profile %s", p.Name)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, name string) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read profile %s", name)
	}
	return p, nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.M{"_id": 1})

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list profiles")
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Name string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode profile list")
	}

	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	return names, nil
}
