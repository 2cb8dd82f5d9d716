package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the unique indexes the protocol relies on. Code and
// token uniqueness is enforced here rather than at generation time: a
// collision surfaces as a duplicate-key insert error.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CodesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(SessionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "access_token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "refresh_token", Value: 1}, {Key: "client_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(SMTPSettingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_default", Value: 1}},
		},
	})
	return err
}

// isDuplicateKeyError reports whether err is a unique index violation.
func isDuplicateKeyError(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
