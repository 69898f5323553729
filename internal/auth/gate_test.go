package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatePublicRouteNeedsNoToken(t *testing.T) {
	gate := NewGate(newTestTokens(t))

	decision, err := gate.Authenticate(Route{Public: true}, "")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.True(t, decision.Public)
	assert.Nil(t, decision.Identity)
}

func TestGatePublicRouteIgnoresBrokenHeader(t *testing.T) {
	gate := NewGate(newTestTokens(t))

	decision, err := gate.Authenticate(Route{Public: true, RequiredRoles: []string{RoleAdmin}}, "Bearer garbage")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Nil(t, decision.Identity)
}

func TestGateProtectedRouteRejectsMissingOrMalformedHeader(t *testing.T) {
	gate := NewGate(newTestTokens(t))
	for _, header := range []string{"", "InvalidFormatToken", "bearer abc", "Bearer", "Bearer ", "Basic abc", "Bearer a b", "Token abc"} {
		_, err := gate.Authenticate(Route{}, header)
		assert.ErrorIs(t, err, ErrUnauthorized, "header %q", header)
	}
}

func TestGateCollapsesTokenFailures(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	tokens := newTestTokens(t, WithTokenClock(clock.Now))
	gate := NewGate(tokens)

	expired, _, err := tokens.Issue(SessionClaims{UserID: "user-1"})
	require.NoError(t, err)
	foreign, _, err := newTestTokensWithSecret(t, "other").Issue(SessionClaims{UserID: "user-1"})
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Hour)

	for _, token := range []string{expired, foreign, "not.a.jwt"} {
		decision, err := gate.Authenticate(Route{}, "Bearer "+token)
		assert.Equal(t, ErrUnauthorized, err)
		assert.Nil(t, decision.Identity)
		assert.False(t, decision.Allowed)
	}
}

func TestGateAttachesIdentity(t *testing.T) {
	tokens := newTestTokens(t)
	gate := NewGate(tokens)
	token, _, err := tokens.Issue(SessionClaims{UserID: "user-1", Email: "a@b.c", Roles: []string{RoleViewer}})
	require.NoError(t, err)

	decision, err := gate.Authenticate(Route{}, "Bearer "+token)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.False(t, decision.Public)
	assert.Equal(t, token, decision.Token)
	require.NotNil(t, decision.Identity)
	assert.Equal(t, "user-1", decision.Identity.UserID)
	assert.Equal(t, []string{RoleViewer}, decision.Identity.User().Roles)
}

func TestGateRoleCheck(t *testing.T) {
	tokens := newTestTokens(t)
	gate := NewGate(tokens)
	viewer, _, err := tokens.Issue(SessionClaims{UserID: "user-1", Roles: []string{RoleViewer}})
	require.NoError(t, err)
	admin, _, err := tokens.Issue(SessionClaims{UserID: "user-2", Roles: []string{RoleAdmin}})
	require.NoError(t, err)

	route := Route{RequiredRoles: []string{RoleAdmin, RoleEventManager}}

	denied, err := gate.Authenticate(route, "Bearer "+viewer)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)
	require.NotNil(t, denied.Identity)
	assert.Equal(t, "user-1", denied.Identity.UserID)

	allowed, err := gate.Authenticate(route, "Bearer "+admin)
	require.NoError(t, err)
	assert.True(t, allowed.Allowed)
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc.def.ghi": {"abc.def.ghi", true},
		"Bearer abc":         {"abc", true},
		"bearer abc":         {"", false},
		"BEARER abc":         {"", false},
		"Bearer  abc":        {"", false},
		"Bearer abc ":        {"", false},
		"Bearer":             {"", false},
		"InvalidFormatToken": {"", false},
		"":                   {"", false},
	}
	for header, want := range cases {
		token, ok := ExtractBearerToken(header)
		assert.Equal(t, want.ok, ok, "header %q", header)
		assert.Equal(t, want.token, token, "header %q", header)
	}
}

func newTestTokensWithSecret(t *testing.T, secret string) *TokenService {
	t.Helper()
	svc, err := NewTokenService(secret)
	require.NoError(t, err)
	return svc
}
