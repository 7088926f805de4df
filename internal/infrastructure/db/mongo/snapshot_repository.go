package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quacc/access-point-api/internal/core/ports"
)

const collectionSnapshots = "snapshots"

// ErrSnapshotNotFound is returned by Read when no document exists for a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository stores each registry document as one record keyed by
// the document name. The JSON payload is kept verbatim.
type SnapshotRepository struct {
	col *mongo.Collection
}

var _ ports.SnapshotStore = (*SnapshotRepository)(nil)

func NewSnapshotRepository(db *mongo.Database) *SnapshotRepository {
	return &SnapshotRepository{col: db.Collection(collectionSnapshots)}
}

type snapshotDoc struct {
	Key       string    `bson:"_id"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Read returns the stored JSON document for key.
func (r *SnapshotRepository) Read(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc snapshotDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, key)
		}
		return nil, fmt.Errorf("find snapshot %s: %w", key, err)
	}
	return []byte(doc.Data), nil
}

// Write replaces the document for key in a single upsert.
func (r *SnapshotRepository) Write(ctx context.Context, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := snapshotDoc{Key: key, Data: string(data), UpdatedAt: time.Now().UTC()}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace snapshot %s: %w", key, err)
	}
	return nil
}
