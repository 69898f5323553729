package auth

import "strings"

const bearerScheme = "Bearer"

// Route is the static metadata the routing layer declares for each endpoint.
type Route struct {
	Public        bool
	RequiredRoles []string
}

// Decision is the outcome of a successful classification. A protected route
// whose role check fails yields Allowed=false with the identity still set so
// the caller can decide how to report it.
type Decision struct {
	Allowed  bool
	Public   bool
	Token    string
	Identity *SessionClaims
}

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	Verify(token string) (*SessionClaims, error)
}

// Gate classifies each call as public or protected and authenticates the latter.
type Gate struct {
	tokens TokenVerifier
}

// NewGate constructs a Gate backed by the given verifier.
func NewGate(tokens TokenVerifier) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate runs the per-request decision for route given the raw
// Authorization header value. Missing, malformed, badly signed and expired
// tokens all fail with ErrUnauthorized.
func (g *Gate) Authenticate(route Route, authorization string) (Decision, error) {
	if route.Public {
		return Decision{Allowed: true, Public: true}, nil
	}
	token, ok := ExtractBearerToken(authorization)
	if !ok {
		return Decision{}, ErrUnauthorized
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return Decision{}, ErrUnauthorized
	}
	return Decision{
		Allowed:  Authorize(claims.Roles, route.RequiredRoles),
		Token:    token,
		Identity: claims,
	}, nil
}

// ExtractBearerToken returns the token from a header of the exact form
// "Bearer <token>". Any other shape reports no token.
func ExtractBearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != bearerScheme {
		return "", false
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
