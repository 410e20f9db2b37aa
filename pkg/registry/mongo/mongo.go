// Package mongo implements a component registry stored in MongoDB.
//
// Descriptors live in the "components" collection with the component
// identifier as _id:
//
//	{"_id": "light", "dependencies": ["zwave"], "requirements": []}
package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/matzehuels/stackreqs/pkg/component"
	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
)

const (
	// DefaultDatabase is used when the connection URI names no database.
	DefaultDatabase = "stackreqs"
	// Collection holds the descriptors.
	Collection = "components"
)

// Registry reads descriptors from a MongoDB collection.
type Registry struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// Open connects to uri and verifies the connection. The database is taken
// from the URI path, defaulting to DefaultDatabase.
func Open(ctx context.Context, uri string) (*Registry, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, stackerrors.Wrap(stackerrors.ErrCodeInvalidInput, err, "parse mongodb uri")
	}
	db := cs.Database
	if db == "" {
		db = DefaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, stackerrors.Wrap(stackerrors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, stackerrors.Wrap(stackerrors.ErrCodeNetwork, err, "ping mongodb")
	}
	r := New(client.Database(db).Collection(Collection))
	r.client = client
	r.owned = true
	return r, nil
}

// New wraps an existing collection. Close leaves its client connected.
func New(coll *mongo.Collection) *Registry {
	return &Registry{coll: coll}
}

// Name returns the backend name used in logs and metrics.
func (r *Registry) Name() string { return "mongo" }

// Lookup returns the descriptor whose _id is id.
func (r *Registry) Lookup(ctx context.Context, id string) (*component.Descriptor, error) {
	var d component.Descriptor
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", component.ErrNotFound, id)
	}
	if err != nil {
		return nil, stackerrors.Wrap(stackerrors.ErrCodeNetwork, err, "mongodb find %s", id)
	}
	return &d, nil
}

// Put upserts d.
func (r *Registry) Put(ctx context.Context, d *component.Descriptor) error {
	if err := stackerrors.ValidateComponentID(d.ID); err != nil {
		return err
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, d, options.Replace().SetUpsert(true))
	return err
}

// Delete removes the descriptor for id.
func (r *Registry) Delete(ctx context.Context, id string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// List returns every stored identifier, sorted.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "_id", bson.D{})
	if err != nil {
		return nil, stackerrors.Wrap(stackerrors.ErrCodeNetwork, err, "mongodb distinct")
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Close disconnects the client if Open created it.
func (r *Registry) Close() error {
	if r.owned {
		return r.client.Disconnect(context.Background())
	}
	return nil
}

var (
	_ component.Registry = (*Registry)(nil)
	_ component.Lister   = (*Registry)(nil)
)
