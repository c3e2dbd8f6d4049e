package dbclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoConfig holds everything needed to reach the document store.
type MongoConfig struct {
	URI      string // mongodb:// or mongodb+srv:// connection string
	Database string // explicit database name; falls back to the URI path
}

// DatabaseName resolves the database to use: the explicit name if set,
// otherwise the path component of the URI, otherwise "test".
func (c MongoConfig) DatabaseName() string {
	if c.Database != "" {
		return c.Database
	}

	rest := c.URI
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			break
		}
	}
	// user:pass@host/DB_NAME?params
	if at := strings.Index(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	if slash := strings.Index(rest, "/"); slash != -1 {
		path := rest[slash+1:]
		if q := strings.Index(path, "?"); q != -1 {
			path = path[:q]
		}
		if path != "" {
			return path
		}
	}
	return "test"
}

// RedactURI masks the credential portion of a Mongo URI for logging.
func RedactURI(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd == -1 {
		return uri
	}
	rest := uri[schemeEnd+3:]
	at := strings.Index(rest, "@")
	if at == -1 {
		return uri
	}
	creds := rest[:at]
	if colon := strings.Index(creds, ":"); colon != -1 {
		creds = creds[:colon] + ":***"
	}
	return uri[:schemeEnd+3] + creds + rest[at:]
}

// ConnectMongo creates a Mongo client and verifies connectivity with a
// bounded ping. The caller owns the client and must Disconnect it.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}
