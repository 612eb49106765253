package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"markpad/internal/users"
)

// sessionTTL bounds how long a bearer token stays valid after login.
const sessionTTL = 30 * 24 * time.Hour

// Session binds a bearer token to a user for a limited time.
type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	SessionID string             `bson:"sessionId"`
	UserID    primitive.ObjectID `bson:"userId"`
	CreatedAt time.Time          `bson:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
}

// SessionStore is the persistence the Manager works against.
// Find returns (nil, nil) for an unknown token.
type SessionStore interface {
	Insert(ctx context.Context, s *Session) error
	Find(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// Manager issues, resolves and revokes sessions.
type Manager struct {
	sessions SessionStore
	users    users.Store
	now      func() time.Time
}

func NewManager(sessions SessionStore, users users.Store) *Manager {
	return &Manager{sessions: sessions, users: users, now: time.Now}
}

// Create issues a fresh token for the user and persists the session.
func (m *Manager) Create(ctx context.Context, userID primitive.ObjectID) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := m.now()
	s := &Session{
		SessionID: token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}
	if err := m.sessions.Insert(ctx, s); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a token to its user. Unknown, expired and orphaned sessions
// all resolve to (nil, nil): the caller is anonymous. A storage failure is
// returned as an error and must never be read as anonymity.
func (m *Manager) Resolve(ctx context.Context, token string) (*users.User, error) {
	if token == "" {
		return nil, nil
	}

	s, err := m.sessions.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}

	if !s.ExpiresAt.After(m.now()) {
		// The TTL index sweeps eventually; do not wait for it.
		if err := m.sessions.Delete(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}

	u, err := m.users.FindByID(ctx, s.UserID)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Revoke deletes the session. Revoking an unknown token is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	return m.sessions.Delete(ctx, token)
}

// SessionRepo is the Mongo-backed SessionStore.
type SessionRepo struct {
	coll *mongo.Collection
}

var _ SessionStore = (*SessionRepo)(nil)

func NewSessionRepo(db *mongo.Database) *SessionRepo {
	return &SessionRepo{coll: db.Collection("sessions")}
}

// EnsureIndexes creates the token lookup index and the TTL sweep on expiry.
func (r *SessionRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create session indexes: %w", err)
	}
	return nil
}

func (r *SessionRepo) Insert(ctx context.Context, s *Session) error {
	s.ID = primitive.NewObjectID()

	_, err := r.coll.InsertOne(ctx, s)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Find(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	err := r.coll.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"sessionId": sessionID}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
