package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNoteNotFound = errors.New("note not found")
)

// Store is the persistence contract the service works against. Every
// note-scoped call carries the owner id; a note that exists but belongs to
// someone else behaves exactly like one that does not exist.
type Store interface {
	Insert(ctx context.Context, n *Note) error
	FindByOwner(ctx context.Context, id, ownerID primitive.ObjectID) (*Note, error)
	Update(ctx context.Context, id, ownerID primitive.ObjectID, title, text, html string) error
	SetArchived(ctx context.Context, id, ownerID primitive.ObjectID, archived bool) error
	Delete(ctx context.Context, id, ownerID primitive.ObjectID) error
	DeleteArchived(ctx context.Context, ownerID primitive.ObjectID) error
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID, archived bool, since time.Time) ([]*Note, error)
}

type Repo struct {
	coll *mongo.Collection
}

var _ Store = (*Repo)(nil)

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection("notes")}
}

// EnsureIndexes covers the listing query: owner + archive flag + recency.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "isArchived", Value: 1},
				{Key: "created", Value: -1},
			},
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create note indexes: %w", err)
	}
	return nil
}

// Insert creates a new note, stamping its id and creation time.
func (r *Repo) Insert(ctx context.Context, n *Note) error {
	n.ID = primitive.NewObjectID()
	n.Created = time.Now()

	_, err := r.coll.InsertOne(ctx, n)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// FindByOwner retrieves a note scoped to its owner.
func (r *Repo) FindByOwner(ctx context.Context, id, ownerID primitive.ObjectID) (*Note, error) {
	var note Note
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "userId": ownerID}).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find note %s: %w", id.Hex(), err)
	}
	return &note, nil
}

// Update replaces title, text and html in one operation.
func (r *Repo) Update(ctx context.Context, id, ownerID primitive.ObjectID, title, text, html string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "userId": ownerID},
		bson.M{"$set": bson.M{"title": title, "text": text, "html": html}},
	)
	if err != nil {
		return fmt.Errorf("update note %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// SetArchived flips the archive flag.
func (r *Repo) SetArchived(ctx context.Context, id, ownerID primitive.ObjectID, archived bool) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "userId": ownerID},
		bson.M{"$set": bson.M{"isArchived": archived}},
	)
	if err != nil {
		return fmt.Errorf("archive note %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// Delete removes one note scoped to its owner.
func (r *Repo) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": ownerID})
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DeleteArchived bulk-removes the owner's archived notes. Active notes and
// other owners' notes are never matched.
func (r *Repo) DeleteArchived(ctx context.Context, ownerID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"userId": ownerID, "isArchived": true})
	if err != nil {
		return fmt.Errorf("delete archived notes: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's notes matching the archive flag and
// created at or after since, newest first. The _id tiebreak keeps the
// order stable for notes sharing a created timestamp.
func (r *Repo) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, archived bool, since time.Time) ([]*Note, error) {
	filter := bson.M{
		"userId":     ownerID,
		"isArchived": archived,
		"created":    bson.M{"$gte": since},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer cursor.Close(ctx)

	var notes []*Note
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return notes, nil
}
