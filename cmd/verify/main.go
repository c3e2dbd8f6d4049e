// Command verify inspects both stores after a pipeline run: row and
// document counts, a preview of the first rows, and recent run history.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"sheetsync/internal/config"
	"sheetsync/internal/dbclient"
	"sheetsync/internal/storage"
)

const previewRows = 5

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := verifyRelational(ctx, cfg); err != nil {
		return fmt.Errorf("relational store: %w", err)
	}
	if err := verifyDocument(ctx, cfg); err != nil {
		return fmt.Errorf("document store: %w", err)
	}
	if err := printRuns(cfg); err != nil {
		return fmt.Errorf("run history: %w", err)
	}
	return nil
}

func verifyRelational(ctx context.Context, cfg *config.Config) error {
	fmt.Printf("=== %s: sales_data ===\n", cfg.Relational.Driver)

	db, err := dbclient.OpenSQL(ctx, cfg.Relational)
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sales_data").Scan(&count); err != nil {
		return fmt.Errorf("count rows: %w", err)
	}
	fmt.Printf("rows: %d\n", count)

	rows, err := db.QueryContext(ctx,
		`SELECT id, quantity, product_name, total_amount, payment_method, customer_type, created_at
		 FROM sales_data LIMIT `+fmt.Sprint(previewRows))
	if err != nil {
		return fmt.Errorf("preview rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, product, payment, customer string
			quantity, total                float64
			createdAt                      time.Time
		)
		if err := rows.Scan(&id, &quantity, &product, &total, &payment, &customer, &createdAt); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		fmt.Printf("  %s  qty=%g  %q  total=%g  %s/%s  created=%s\n",
			id, quantity, product, total, payment, customer, createdAt.Format(time.RFC3339))
	}
	return rows.Err()
}

func verifyDocument(ctx context.Context, cfg *config.Config) error {
	fmt.Println("=== mongodb: sales_data ===")

	client, err := dbclient.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.WithoutCancel(ctx))

	coll := client.Database(cfg.Mongo.DatabaseName()).Collection("sales_data")

	count, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	fmt.Printf("documents: %d\n", count)

	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetLimit(previewRows))
	if err != nil {
		return fmt.Errorf("preview documents: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		fmt.Printf("  %v\n", doc)
	}
	return cursor.Err()
}

func printRuns(cfg *config.Config) error {
	db, err := storage.New(cfg.RunDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := storage.NewRunStore(db).ListRuns(previewRows)
	if err != nil {
		return err
	}

	fmt.Println("=== recent runs ===")
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, r := range runs {
		line := fmt.Sprintf("  %s  %s  stage=%s  read=%d dropped=%d loaded=%d",
			r.StartedAt.Format(time.RFC3339), r.Status, r.Stage, r.RowsRead, r.RowsDropped, r.RowsLoaded)
		if r.Error != "" {
			line += "  error=" + r.Error
		}
		fmt.Println(line)
	}
	return nil
}
