package mongodb

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/v2/mongo/otelmongo"
)

// Collection names. A single database holds the OAuth state and the per-user
// SMTP settings.
const (
	CodesCollection        = "authorization_codes"
	SessionsCollection     = "oauth_sessions"
	SMTPSettingsCollection = "smtp_settings"
)

var (
	clientInstance *mongo.Client
	clientOnce     sync.Once
	dbInstance     *mongo.Database
	dbOnce         sync.Once
)

// InitMongoDB initializes the MongoDB client and database instances.
// It should be called once at application startup.
func InitMongoDB(ctx context.Context, uri, dbName string) error {
	var err error
	clientOnce.Do(func() {
		log.Info().Str("uri", uri).Msg("Initializing MongoDB client")

		clientOptions := options.Client().ApplyURI(uri)
		clientOptions.SetConnectTimeout(10 * time.Second)
		clientOptions.SetMonitor(otelmongo.NewMonitor())

		client, clientErr := mongo.Connect(clientOptions)
		if clientErr != nil {
			err = clientErr
			return
		}

		if pingErr := client.Ping(ctx, readpref.Primary()); pingErr != nil {
			err = pingErr
			return
		}
		clientInstance = client
	})
	if err != nil {
		return err
	}
	if clientInstance == nil {
		return errors.New("mongodb client not initialized")
	}

	dbOnce.Do(func() {
		dbInstance = clientInstance.Database(dbName)
	})

	return EnsureIndexes(ctx, dbInstance)
}

// GetDB returns the initialized database instance.
func GetDB() *mongo.Database {
	return dbInstance
}

// CloseMongoDB disconnects the client.
func CloseMongoDB(ctx context.Context) {
	if clientInstance == nil {
		return
	}
	if err := clientInstance.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("Error disconnecting MongoDB client")
	}
}
