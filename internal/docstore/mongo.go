package docstore

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore adapte une base MongoDB à l'interface Store.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo ouvre un client sur uri et sélectionne la base dbName.
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, oops.Code("DOCSTORE_MONGO_CONNECT").With("db", dbName).Wrap(err)
	}
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

func (s *MongoStore) Collection(name string) Collection {
	return &mongoCollection{coll: s.db.Collection(name)}
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll *mongo.Collection
}

// La projection exclut toujours l'_id interne de Mongo.
var hideInternalID = bson.M{internalIDField: 0}

func (c *mongoCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	var raw bson.M
	err := c.coll.FindOne(ctx, bson.M(filter), options.FindOne().SetProjection(hideInternalID)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoDocuments
	}
	if err != nil {
		return nil, c.wrap("DOCSTORE_FIND_FAILED", err)
	}
	return fromBSON(raw), nil
}

func (c *mongoCollection) FindMany(ctx context.Context, filter Filter, limit int64) ([]Document, error) {
	opts := options.Find().SetProjection(hideInternalID)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := c.coll.Find(ctx, bson.M(filter), opts)
	if err != nil {
		return nil, c.wrap("DOCSTORE_FIND_FAILED", err)
	}
	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, c.wrap("DOCSTORE_FIND_FAILED", err)
	}
	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, fromBSON(raw))
	}
	return docs, nil
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc Document) error {
	if _, err := c.coll.InsertOne(ctx, bson.M(clone(doc))); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return oops.Code("DOCSTORE_DUPLICATE_KEY").With("collection", c.coll.Name()).Wrap(errors.Join(ErrDuplicateKey, err))
		}
		return c.wrap("DOCSTORE_INSERT_FAILED", err)
	}
	return nil
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter Filter, set Document) (int64, error) {
	res, err := c.coll.UpdateOne(ctx, bson.M(filter), bson.M{"$set": bson.M(clone(set))})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, oops.Code("DOCSTORE_DUPLICATE_KEY").With("collection", c.coll.Name()).Wrap(errors.Join(ErrDuplicateKey, err))
		}
		return 0, c.wrap("DOCSTORE_UPDATE_FAILED", err)
	}
	return res.MatchedCount, nil
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, bson.M(filter))
	if err != nil {
		return 0, c.wrap("DOCSTORE_DELETE_FAILED", err)
	}
	return res.DeletedCount, nil
}

func (c *mongoCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, bson.M(filter))
	if err != nil {
		return 0, c.wrap("DOCSTORE_COUNT_FAILED", err)
	}
	return n, nil
}

func (c *mongoCollection) EnsureUniqueIndex(ctx context.Context, field string) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return oops.Code("DOCSTORE_INDEX_FAILED").With("collection", c.coll.Name(), "field", field).Wrap(err)
	}
	return nil
}

func (c *mongoCollection) wrap(code string, err error) error {
	return oops.Code(code).With("collection", c.coll.Name()).Wrap(err)
}

// fromBSON convertit récursivement les types bson en types Go simples.
func fromBSON(v bson.M) Document {
	out := make(Document, len(v))
	for k, val := range v {
		if k == internalIDField {
			continue
		}
		out[k] = fromBSONValue(val)
	}
	return out
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return map[string]any(fromBSON(t))
	case bson.D:
		return map[string]any(fromBSON(t.Map()))
	case bson.A:
		out := make([]any, len(t))
		for i := range t {
			out[i] = fromBSONValue(t[i])
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}
