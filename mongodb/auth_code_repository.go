package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"go.pilab.hu/smtp-sso/domain"
)

// AuthCodeRepository stores authorization codes in MongoDB.
type AuthCodeRepository struct {
	codes *mongo.Collection
}

func NewAuthCodeRepository(db *mongo.Database) *AuthCodeRepository {
	return &AuthCodeRepository{codes: db.Collection(CodesCollection)}
}

func (r *AuthCodeRepository) SaveAuthCode(ctx context.Context, authCode *domain.AuthCode) error {
	if authCode.Code == "" {
		return errors.New("auth code value cannot be empty")
	}

	authCode.CreatedAt = time.Now().UTC()
	if _, err := r.codes.InsertOne(ctx, authCode); err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("authorization code already exists: %w", domain.ErrDuplicate)
		}
		log.Error().Err(err).Msg("Error saving authorization code")
		return fmt.Errorf("failed to save authorization code: %w", err)
	}

	log.Debug().Str("client_id", authCode.ClientID).Str("user_id", authCode.UserID).
		Msg("Authorization code saved")
	return nil
}

// ConsumeAuthCode flips used=false to used=true in a single conditional
// update, so two concurrent exchanges of the same code cannot both observe
// it unused. The returned document is the pre-update state.
func (r *AuthCodeRepository) ConsumeAuthCode(ctx context.Context, code, clientID string) (*domain.AuthCode, error) {
	filter := bson.M{"code": code, "client_id": clientID, "used": false}
	update := bson.M{"$set": bson.M{"used": true}}

	var authCode domain.AuthCode
	err := r.codes.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&authCode)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Msg("Error consuming authorization code")
		return nil, fmt.Errorf("failed to consume authorization code: %w", err)
	}

	log.Debug().Str("client_id", clientID).Msg("Authorization code consumed")
	return &authCode, nil
}

func (r *AuthCodeRepository) DeleteExpiredAuthCodes(ctx context.Context) error {
	_, err := r.codes.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}})
	return err
}
