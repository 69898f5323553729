package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingIdentityStore struct {
	*MemoryStore
	err error
}

func (s *failingIdentityStore) FindByEmail(context.Context, string) (*Identity, error) {
	return nil, s.err
}

func (s *failingIdentityStore) EmailTaken(context.Context, string) (bool, error) {
	return false, s.err
}

type fixture struct {
	store   *MemoryStore
	tokens  *TokenService
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewMemoryStore()
	tokens := newTestTokens(t)
	return &fixture{
		store:   store,
		tokens:  tokens,
		service: NewService(store, tokens, zerolog.Nop()),
	}
}

func (f *fixture) addIdentity(t *testing.T, email, password string, roles ...string) *Identity {
	t.Helper()
	ctx := context.Background()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	identity := &Identity{
		ID:           "id-" + email,
		FirstName:    "Desmond",
		LastName:     "Hume",
		Email:        email,
		PasswordHash: hash,
	}
	for _, name := range roles {
		role, err := f.store.FindRoleByName(ctx, name)
		if errors.Is(err, ErrNotFound) {
			role, err = f.store.CreateRole(ctx, name, nil)
		}
		require.NoError(t, err)
		identity.Roles = append(identity.Roles, role)
	}
	require.NoError(t, f.store.Create(ctx, identity))
	return identity
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	identity := f.addIdentity(t, "desmond@gmail.com", "password", RoleEventManager)

	resp := f.service.Login(context.Background(), LoginRequest{Email: "desmond@gmail.com", Password: "password"})
	require.True(t, resp.OK(), "response: %+v", resp)
	assert.Equal(t, http.StatusOK, resp.HTTPStatus())
	assert.Equal(t, "Login successful", resp.Message)

	data, ok := resp.Data.(SessionData)
	require.True(t, ok)
	assert.Equal(t, identity.ID, data.User.UserID)
	assert.Equal(t, "Desmond", data.User.FirstName)
	assert.Equal(t, "Hume", data.User.LastName)
	assert.Equal(t, "desmond@gmail.com", data.User.Email)

	claims, err := f.tokens.Verify(data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, claims.UserID)
	assert.Equal(t, []string{RoleEventManager}, claims.Roles)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), identity.PasswordHash)
}

func TestLoginNormalizesEmail(t *testing.T) {
	f := newFixture(t)
	f.addIdentity(t, "desmond@gmail.com", "password")

	resp := f.service.Login(context.Background(), LoginRequest{Email: "  Desmond@Gmail.com ", Password: "password"})
	assert.True(t, resp.OK(), "response: %+v", resp)
}

func TestLoginMissingFields(t *testing.T) {
	f := newFixture(t)
	for _, req := range []LoginRequest{{}, {Email: "a@b.c"}, {Password: "x"}, {Email: "   ", Password: "x"}} {
		resp := f.service.Login(context.Background(), req)
		assert.Equal(t, Response{Status: StatusBadRequest, Message: "Email and password are required", StatusCode: http.StatusBadRequest}, resp)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t)
	resp := f.service.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "password"})
	assert.Equal(t, Response{Status: StatusBadRequest, Message: "User not found", StatusCode: http.StatusNotFound}, resp)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.addIdentity(t, "desmond@gmail.com", "password")

	resp := f.service.Login(context.Background(), LoginRequest{Email: "desmond@gmail.com", Password: "nope"})
	assert.Equal(t, Response{Status: StatusBadRequest, Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}, resp)
}

func TestLoginStoreFaultIsReportedGenerically(t *testing.T) {
	store := &failingIdentityStore{MemoryStore: NewMemoryStore(), err: errors.New("connection reset")}
	svc := NewService(store, newTestTokens(t), zerolog.Nop())

	resp := svc.Login(context.Background(), LoginRequest{Email: "desmond@gmail.com", Password: "password"})
	assert.Equal(t, Response{Status: StatusBadRequest, Message: "Authentication failed", StatusCode: http.StatusUnauthorized}, resp)
}

func TestRegisterSuccess(t *testing.T) {
	f := newFixture(t)
	req := &RegisterRequest{FirstName: "Kate", LastName: "Austen", Email: "Kate@Example.com", Password: "secret"}

	resp := f.service.Register(context.Background(), req, "Bearer caller-token")
	require.True(t, resp.OK(), "response: %+v", resp)
	assert.Equal(t, http.StatusCreated, resp.HTTPStatus())
	assert.Equal(t, "Registration successful", resp.Message)

	data, ok := resp.Data.(SessionData)
	require.True(t, ok)
	assert.Equal(t, "caller-token", data.AccessToken)
	assert.Equal(t, "kate@example.com", data.User.Email)
	require.NotEmpty(t, data.User.UserID)

	stored, err := f.store.FindByID(context.Background(), data.User.UserID, true)
	require.NoError(t, err)
	assert.Empty(t, stored.Roles)
	assert.True(t, VerifyPassword("secret", stored.PasswordHash))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.addIdentity(t, "desmond@gmail.com", "password")

	resp := f.service.Register(context.Background(), &RegisterRequest{
		FirstName: "Other", LastName: "Person", Email: "desmond@gmail.com", Password: "pw",
	}, "Bearer caller-token")
	assert.Equal(t, Response{Status: StatusBadRequest, Message: "Email has been taken", StatusCode: http.StatusBadRequest}, resp)
}

func TestRegisterRequiresBearerHeader(t *testing.T) {
	f := newFixture(t)
	req := &RegisterRequest{FirstName: "Kate", LastName: "Austen", Email: "kate@example.com", Password: "secret"}

	for _, header := range []string{"", "InvalidFormatToken", "Basic abc"} {
		resp := f.service.Register(context.Background(), req, header)
		assert.Equal(t, Response{Status: StatusBadRequest, Message: "Registration unsuccessful", StatusCode: http.StatusBadRequest}, resp)
	}
	taken, err := f.store.EmailTaken(context.Background(), "kate@example.com")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	resp := f.service.Register(context.Background(), nil, "Bearer x")
	assert.Equal(t, "No payload provided", resp.Message)

	resp = f.service.Register(context.Background(), &RegisterRequest{LastName: "A", Email: "a@b.co", Password: "p"}, "Bearer x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "firstName is required", resp.Message)

	resp = f.service.Register(context.Background(), &RegisterRequest{FirstName: "A", LastName: "B", Email: "not-an-email", Password: "p"}, "Bearer x")
	assert.Equal(t, "email must be a valid email address", resp.Message)
}

func TestRegisterStoreFault(t *testing.T) {
	store := &failingIdentityStore{MemoryStore: NewMemoryStore(), err: errors.New("boom")}
	svc := NewService(store, newTestTokens(t), zerolog.Nop())

	resp := svc.Register(context.Background(), &RegisterRequest{FirstName: "A", LastName: "B", Email: "a@b.co", Password: "p"}, "Bearer x")
	assert.Equal(t, "Registration unsuccessful", resp.Message)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	identity := f.addIdentity(t, "desmond@gmail.com", "password")
	self := &SessionClaims{UserID: identity.ID}

	resp := f.service.Profile(context.Background(), self, identity.ID)
	require.True(t, resp.OK())
	assert.Equal(t, identity.View(), resp.Data)

	resp = f.service.Profile(context.Background(), &SessionClaims{UserID: "someone-else"}, identity.ID)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "Unauthorized", resp.Message)

	resp = f.service.Profile(context.Background(), nil, identity.ID)
	assert.Equal(t, "Unauthorized", resp.Message)

	ghost := &SessionClaims{UserID: "ghost"}
	resp = f.service.Profile(context.Background(), ghost, "ghost")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
