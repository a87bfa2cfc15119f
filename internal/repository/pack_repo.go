package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clipquiz/internal/model"
)

// PackRepo handles MongoDB operations for catalog packs
type PackRepo interface {
	Create(ctx context.Context, pack *model.Pack) (string, error)
	GetByID(ctx context.Context, id string) (*model.Pack, error)
	List(ctx context.Context) ([]*model.Pack, error)
	Search(ctx context.Context, query string, tags []string) ([]*model.Pack, error)
	Update(ctx context.Context, pack *model.Pack) error
	Delete(ctx context.Context, id string) error
	IncrementPlayCount(ctx context.Context, id string) error
}

type packRepo struct {
	collection *mongo.Collection
}

// NewPackRepo creates a new pack repository and ensures the search index
func NewPackRepo(db *mongo.Database) (PackRepo, error) {
	r := &packRepo{
		collection: db.Collection("packs"),
	}
	_, err := r.collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{
			{Key: "name", Value: "text"},
			{Key: "tags", Value: "text"},
		},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *packRepo) Create(ctx context.Context, pack *model.Pack) (string, error) {
	pack.CreatedAt = time.Now()
	pack.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, pack)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	return oid.Hex(), nil
}

func (r *packRepo) GetByID(ctx context.Context, id string) (*model.Pack, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil // malformed id never matches a pack
	}

	var pack model.Pack
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&pack)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pack.ID = id
	return &pack, nil
}

func (r *packRepo) List(ctx context.Context) ([]*model.Pack, error) {
	return r.find(ctx, bson.M{}, nil)
}

// Search matches packs by text query and/or tags. An empty query with
// tags filters by tags alone; ranking comes from Mongo's text score.
func (r *packRepo) Search(ctx context.Context, query string, tags []string) ([]*model.Pack, error) {
	filter := bson.M{}
	var opts *options.FindOptions
	if query != "" {
		filter["$text"] = bson.M{"$search": query}
		opts = options.Find().
			SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
			SetSort(bson.M{"score": bson.M{"$meta": "textScore"}})
	}
	if len(tags) > 0 {
		filter["tags"] = bson.M{"$all": tags}
	}
	return r.find(ctx, filter, opts)
}

func (r *packRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Pack, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, filter, opts)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var packs []*model.Pack
	if err := cursor.All(ctx, &packs); err != nil {
		return nil, err
	}
	return packs, nil
}

func (r *packRepo) Update(ctx context.Context, pack *model.Pack) error {
	oid, err := primitive.ObjectIDFromHex(pack.ID)
	if err != nil {
		return err
	}

	pack.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":      pack.Name,
		"tags":      pack.Tags,
		"tracks":    pack.Tracks,
		"updatedAt": pack.UpdatedAt,
	}}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *packRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (r *packRepo) IncrementPlayCount(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"playCount": 1}})
	return err
}
