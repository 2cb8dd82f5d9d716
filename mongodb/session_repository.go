package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"go.pilab.hu/smtp-sso/domain"
)

// SessionRepository stores issued token pairs in MongoDB.
type SessionRepository struct {
	sessions *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{sessions: db.Collection(SessionsCollection)}
}

func (r *SessionRepository) SaveSession(ctx context.Context, session *domain.Session) error {
	session.CreatedAt = time.Now().UTC()
	if _, err := r.sessions.InsertOne(ctx, session); err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("session token already exists: %w", domain.ErrDuplicate)
		}
		log.Error().Err(err).Str("session_id", session.ID).Msg("Error saving session")
		return fmt.Errorf("failed to save session: %w", err)
	}

	log.Debug().Str("session_id", session.ID).Str("user_id", session.UserID).Msg("Session saved")
	return nil
}

func (r *SessionRepository) GetSessionByAccessToken(ctx context.Context, accessToken string) (*domain.Session, error) {
	var session domain.Session
	err := r.sessions.FindOne(ctx, bson.M{"access_token": accessToken}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) GetSessionByRefreshToken(ctx context.Context, refreshToken, clientID string) (*domain.Session, error) {
	var session domain.Session
	filter := bson.M{"refresh_token": refreshToken, "client_id": clientID}
	err := r.sessions.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) UpdateAccessToken(ctx context.Context, sessionID, accessToken string, expiresAt time.Time) error {
	filter := bson.M{"_id": sessionID}
	update := bson.M{"$set": bson.M{"access_token": accessToken, "expires_at": expiresAt}}

	result, err := r.sessions.UpdateOne(ctx, filter, update)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Error updating session access token")
		return fmt.Errorf("failed to update session access token: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	log.Debug().Str("session_id", sessionID).Msg("Session access token rotated")
	return nil
}

func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.sessions.DeleteMany(ctx, bson.M{"refresh_expires_at": bson.M{"$lte": time.Now().UTC()}})
	return err
}
