package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aywhoosh/iris-identity/internal/core/domain"
)

const tokenCollection = "refresh_tokens"

type MongoRefreshTokenRepository struct {
	coll *mongo.Collection
}

func NewRefreshTokenRepository(db *mongo.Database) *MongoRefreshTokenRepository {
	return &MongoRefreshTokenRepository{coll: db.Collection(tokenCollection)}
}

type mongoRefreshToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Token     string             `bson:"token"` // jti, unique index
	ExpiresAt int64              `bson:"expires_at"`
	Revoked   bool               `bson:"revoked"`
	RevokedAt *int64             `bson:"revoked_at,omitempty"`
	CreatedAt int64              `bson:"created_at"`
}

func (r *MongoRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	doc := mongoRefreshToken{
		UserID:    token.UserID,
		Token:     token.JTI,
		ExpiresAt: token.ExpiresAt.Unix(),
		Revoked:   false,
		CreatedAt: token.CreatedAt.Unix(),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		// jtis are UUIDs; a duplicate means issuance went badly wrong,
		// not that the caller should retry.
		return fmt.Errorf("insert refresh token: %w", err)
	}
	token.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *MongoRefreshTokenRepository) FindByJTI(ctx context.Context, jti string) (*domain.RefreshToken, error) {
	var mt mongoRefreshToken
	if err := r.coll.FindOne(ctx, bson.M{"token": jti}).Decode(&mt); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return mt.toDomain(), nil
}

// ConsumeActive is the single conditional update the rotation protocol rests
// on: only a row that is still unrevoked and unexpired matches the filter, so
// of N concurrent rotations exactly one observes a match. Everyone else gets
// ErrNoDocuments, reported as domain.ErrInvalidToken.
func (r *MongoRefreshTokenRepository) ConsumeActive(ctx context.Context, jti string, now time.Time) (*domain.RefreshToken, error) {
	filter := bson.M{
		"token":      jti,
		"revoked":    false,
		"expires_at": bson.M{"$gt": now.Unix()},
	}
	update := bson.M{"$set": bson.M{
		"revoked":    true,
		"revoked_at": now.Unix(),
	}}

	var mt mongoRefreshToken
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	return mt.toDomain(), nil
}

// Revoke marks the row revoked if it still is not. Rows that are missing or
// already revoked leave nothing to do — logout is idempotent.
func (r *MongoRefreshTokenRepository) Revoke(ctx context.Context, jti string, now time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"token": jti, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true, "revoked_at": now.Unix()}},
	)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (mt *mongoRefreshToken) toDomain() *domain.RefreshToken {
	token := &domain.RefreshToken{
		ID:        mt.ID.Hex(),
		UserID:    mt.UserID,
		JTI:       mt.Token,
		ExpiresAt: unixToTime(mt.ExpiresAt),
		Revoked:   mt.Revoked,
		CreatedAt: unixToTime(mt.CreatedAt),
	}
	if mt.RevokedAt != nil {
		t := unixToTime(*mt.RevokedAt)
		token.RevokedAt = &t
	}
	return token
}
