package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"go.pilab.hu/smtp-sso/domain"
)

// SMTPSettingsRepository stores per-user SMTP credentials in MongoDB.
type SMTPSettingsRepository struct {
	settings *mongo.Collection
}

func NewSMTPSettingsRepository(db *mongo.Database) *SMTPSettingsRepository {
	return &SMTPSettingsRepository{settings: db.Collection(SMTPSettingsCollection)}
}

func (r *SMTPSettingsRepository) UpsertSettings(ctx context.Context, s *domain.SMTPSettings) error {
	now := time.Now().UTC()
	s.UpdatedAt = now

	if s.IsDefault {
		// A user has at most one default configuration.
		_, err := r.settings.UpdateMany(ctx,
			bson.M{"user_id": s.UserID, "is_default": true},
			bson.M{"$set": bson.M{"is_default": false}})
		if err != nil {
			return fmt.Errorf("failed to clear previous default settings: %w", err)
		}
	}

	filter := bson.M{"_id": s.ID}
	update := bson.M{
		"$set": bson.M{
			"user_id":               s.UserID,
			"elastic_email_api_key": s.APIKey,
			"smtp_username":         s.Username,
			"smtp_password":         s.Password,
			"smtp_server":           s.Server,
			"smtp_port":             s.Port,
			"smtp_tls_enabled":      s.TLSEnabled,
			"sender_email":          s.SenderEmail,
			"sender_name":           s.SenderName,
			"is_default":            s.IsDefault,
			"updated_at":            s.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := r.settings.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert smtp settings: %w", err)
	}
	return nil
}

func (r *SMTPSettingsRepository) GetDefaultByUserID(ctx context.Context, userID string) (*domain.SMTPSettings, error) {
	var s domain.SMTPSettings
	filter := bson.M{"user_id": userID, "is_default": true}
	err := r.settings.FindOne(ctx, filter).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve smtp settings: %w", err)
	}
	return &s, nil
}
