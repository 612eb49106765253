package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"markpad/internal/users"
)

// memSessionStore is an in-memory SessionStore for Manager tests.
type memSessionStore struct {
	byToken map[string]*Session
	err     error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{byToken: make(map[string]*Session)}
}

func (m *memSessionStore) Insert(_ context.Context, s *Session) error {
	if m.err != nil {
		return m.err
	}
	m.byToken[s.SessionID] = s
	return nil
}

func (m *memSessionStore) Find(_ context.Context, sessionID string) (*Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byToken[sessionID], nil
}

func (m *memSessionStore) Delete(_ context.Context, sessionID string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.byToken, sessionID)
	return nil
}

// memUserStore is an in-memory users.Store.
type memUserStore struct {
	byID map[primitive.ObjectID]*users.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byID: make(map[primitive.ObjectID]*users.User)}
}

func (m *memUserStore) Insert(_ context.Context, u *users.User) error {
	for _, existing := range m.byID {
		if existing.UserName == u.UserName {
			return users.ErrUsernameTaken
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUserStore) FindByName(_ context.Context, userName string) (*users.User, error) {
	for _, u := range m.byID {
		if u.UserName == userName {
			return u, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (m *memUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*users.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func newTestManager(t *testing.T) (*Manager, *memSessionStore, *memUserStore, *users.User) {
	t.Helper()

	sessionStore := newMemSessionStore()
	userStore := newMemUserStore()
	u := &users.User{UserName: "alice", PasswordHash: "x"}
	require.NoError(t, userStore.Insert(context.Background(), u))

	return NewManager(sessionStore, userStore), sessionStore, userStore, u
}

func TestManager_CreateResolveRoundTrip(t *testing.T) {
	m, _, _, u := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "alice", got.UserName)
}

func TestManager_ResolveUnknownTokenIsAnonymous(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	got, err := m.Resolve(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManager_ResolveEmptyTokenIsAnonymous(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	got, err := m.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManager_RevokeEndsSession(t *testing.T) {
	m, _, _, u := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, token))

	got, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Revoking again is not an error.
	require.NoError(t, m.Revoke(ctx, token))
}

func TestManager_ExpiredSessionIsAnonymous(t *testing.T) {
	m, sessionStore, _, u := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, u.ID)
	require.NoError(t, err)

	// Move the clock past the TTL.
	m.now = func() time.Time { return time.Now().Add(sessionTTL + time.Hour) }

	got, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Resolve deletes the expired record instead of waiting for the sweep.
	assert.NotContains(t, sessionStore.byToken, token)
}

func TestManager_OrphanedSessionIsAnonymous(t *testing.T) {
	m, _, userStore, u := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, u.ID)
	require.NoError(t, err)

	delete(userStore.byID, u.ID)

	got, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManager_StorageErrorIsNotAnonymity(t *testing.T) {
	m, sessionStore, _, u := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, u.ID)
	require.NoError(t, err)

	sessionStore.err = errors.New("connection reset")

	_, err = m.Resolve(ctx, token)
	require.Error(t, err)
}
