// Package archive implements a denormalized, query-oriented read model
// of persisted encounters on top of MongoDB, alongside (not instead
// of) the relational protocol.Repository — the "persisted encounters
// are queryable for post-fight review" requirement of spec.md §1 needs
// a store shaped for document-style filtering (by boss, by date range,
// by local player) rather than the join-heavy relational schema
// internal/storage owns.
//
// Grounded on the teacher's internal/storage.Postgres repository-wrapper
// shape (New(pool)/method-per-operation, every query error wrapped with
// fmt.Errorf("...: %w", err)), adapted from pgx's row-scanning idiom to
// mongo-driver/v2's BSON document idiom.
package archive

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/udisondev/raidtrack/internal/protocol"
)

const collectionName = "encounters"

// Document is the denormalized record stored per encounter: the three
// relational rows folded into one document plus an ArchivedAt
// timestamp, so a single query answers "show me this raid's recent
// Valakas kills" without joining across tables.
type Document struct {
	ID          int64                `bson:"_id"`
	ArchivedAt  time.Time            `bson:"archived_at"`
	Encounter   protocol.EncounterRow `bson:"encounter"`
	Entities    []protocol.EntityRow  `bson:"entities"`
	Preview     protocol.PreviewRow   `bson:"preview"`
}

// Store wraps a Mongo collection with the narrow set of operations the
// post-fight review surface needs.
type Store struct {
	coll *mongo.Collection
}

// Connect dials MongoDB at uri and returns a Store bound to dbName's
// "encounters" collection.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &Store{coll: client.Database(dbName).Collection(collectionName)}, nil
}

// New wraps an already-open collection, primarily for tests against an
// in-memory/mock driver.
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// Archive upserts id's denormalized document, called after
// internal/persistence.Pipeline.Save has already committed the
// relational rows — archive failures are logged by the caller and never
// roll back the relational save (spec §7: persistence failures degrade,
// they don't cascade).
func (s *Store) Archive(ctx context.Context, id int64, enc protocol.EncounterRow, entities []protocol.EntityRow, preview protocol.PreviewRow) error {
	doc := Document{
		ID:         id,
		ArchivedAt: time.Now().UTC(),
		Encounter:  enc,
		Entities:   entities,
		Preview:    preview,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		return fmt.Errorf("archiving encounter %d: %w", id, err)
	}
	return nil
}

// FindByID reads back one archived encounter in full.
func (s *Store) FindByID(ctx context.Context, id int64) (Document, error) {
	var doc Document
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("finding encounter %d: %w", id, err)
	}
	return doc, nil
}

// ListByBoss returns the most recent limit encounters against boss,
// newest first — the post-fight review surface's "show me my last N
// pulls on this boss" query.
func (s *Store) ListByBoss(ctx context.Context, boss string, limit int64) ([]Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "archived_at", Value: -1}}).SetLimit(limit)
	cur, err := s.coll.Find(ctx, bson.M{"preview.currentboss": boss}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing encounters for boss %q: %w", boss, err)
	}
	defer cur.Close(ctx)

	var docs []Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding encounters for boss %q: %w", boss, err)
	}
	return docs, nil
}

// Close disconnects the client behind the Store's collection, whether
// the Store was built via Connect or via New.
func (s *Store) Close(ctx context.Context) error {
	client := s.coll.Database().Client()
	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting mongodb: %w", err)
	}
	return nil
}
