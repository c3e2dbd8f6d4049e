package destinations

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"sheetsync/internal/dbclient"
	"sheetsync/internal/etl"
)

// ── Document Loader ────────────────────────────────────────
// Full-collection replace: delete everything, insert the current set in
// one bulk operation, then (re)build the unique index on id.

const collectionName = "sales_data"

// salesDocument is the persisted document shape: the canonical fields
// plus an inserted_at stamped fresh every run. Because the collection is
// fully replaced, inserted_at always reflects the latest run.
type salesDocument struct {
	ID            string    `bson:"id"`
	Quantity      float64   `bson:"quantity"`
	ProductName   string    `bson:"product_name"`
	TotalAmount   float64   `bson:"total_amount"`
	PaymentMethod string    `bson:"payment_method"`
	CustomerType  string    `bson:"customer_type"`
	InsertedAt    time.Time `bson:"inserted_at"`
}

// DocumentLoader writes canonical records to a MongoDB collection.
type DocumentLoader struct {
	cfg dbclient.MongoConfig
	log *slog.Logger
}

// NewDocumentLoader creates a loader for the sales_data collection.
func NewDocumentLoader(cfg dbclient.MongoConfig, log *slog.Logger) *DocumentLoader {
	return &DocumentLoader{cfg: cfg, log: log}
}

func (l *DocumentLoader) Name() string { return "mongodb" }

// Load guarantees that on success the collection holds exactly one
// document per record id, nothing from prior runs survives, and a
// unique index exists on id. Duplicate surviving ids are rejected when
// the index is built, never dropped silently. The client is
// disconnected on every exit path.
func (l *DocumentLoader) Load(ctx context.Context, records []etl.CanonicalRecord, mode etl.SyncMode) (int, error) {
	l.log.Info("connecting to document store",
		"uri", dbclient.RedactURI(l.cfg.URI), "database", l.cfg.DatabaseName())

	client, err := dbclient.ConnectMongo(ctx, l.cfg)
	if err != nil {
		return 0, &etl.ConnectionError{Store: "mongodb", Err: err}
	}
	defer func() {
		discCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(discCtx); err != nil {
			l.log.Warn("disconnect mongo", "error", err)
		}
	}()

	coll := client.Database(l.cfg.DatabaseName()).Collection(collectionName)

	if mode == etl.SyncReplace {
		delCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		res, err := coll.DeleteMany(delCtx, bson.D{})
		cancel()
		if err != nil {
			return 0, &etl.WriteError{Store: "mongodb", Op: "delete", Err: err}
		}
		if res.DeletedCount > 0 {
			l.log.Info("cleared existing documents", "count", res.DeletedCount)
		}
	}

	docs := buildDocuments(records, time.Now().UTC())
	if len(docs) > 0 {
		insCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		_, err := coll.InsertMany(insCtx, docs)
		cancel()
		if err != nil {
			return 0, &etl.WriteError{Store: "mongodb", Op: "insert", Err: err}
		}
		l.log.Info("documents inserted", "count", len(docs))
	}

	idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err = coll.Indexes().CreateOne(idxCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return len(docs), &etl.WriteError{Store: "mongodb", Op: "index", Err: err}
	}
	l.log.Info("created unique index", "collection", collectionName, "field", "id")

	return len(docs), nil
}

// buildDocuments stamps every record with the run's insertion time,
// preserving input order.
func buildDocuments(records []etl.CanonicalRecord, now time.Time) []any {
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = salesDocument{
			ID:            r.ID,
			Quantity:      r.Quantity,
			ProductName:   r.ProductName,
			TotalAmount:   r.TotalAmount,
			PaymentMethod: r.PaymentMethod,
			CustomerType:  r.CustomerType,
			InsertedAt:    now,
		}
	}
	return docs
}
