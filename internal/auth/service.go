package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"eventdesk.org/internal/ids"
)

const (
	StatusSuccess    = "success"
	StatusBadRequest = "Bad request"
	StatusError      = "error"
)

// Response is the structured result of login, registration and profile
// lookups. Failures carry StatusCode; they are never returned as Go errors.
type Response struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// HTTPStatus is the status code a transport should answer with.
func (r Response) HTTPStatus() int {
	if r.StatusCode != 0 {
		return r.StatusCode
	}
	return http.StatusOK
}

// OK reports whether the response describes a success.
func (r Response) OK() bool { return r.Status == StatusSuccess }

// SessionData is the payload of a successful login or registration.
type SessionData struct {
	AccessToken string   `json:"accessToken"`
	User        UserView `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

// Service implements the login, registration and profile flows.
type Service struct {
	identities IdentityStore
	resolver   *Resolver
	tokens     *TokenService
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewService wires the flows to an identity store and token service.
func NewService(identities IdentityStore, tokens *TokenService, logger zerolog.Logger) *Service {
	return &Service{
		identities: identities,
		resolver:   NewResolver(identities),
		tokens:     tokens,
		validate:   validator.New(),
		logger:     logger.With().Str("component", "auth").Logger(),
	}
}

// Resolver exposes the identity resolver used by the service.
func (s *Service) Resolver() *Resolver { return s.resolver }

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) Response {
	req.Email = NormalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return failure(StatusBadRequest, "Email and password are required", http.StatusBadRequest)
	}

	identity, err := s.resolver.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(StatusBadRequest, "User not found", http.StatusNotFound)
		}
		s.logger.Error().Err(err).Msg("login lookup failed")
		return failure(StatusBadRequest, "Authentication failed", http.StatusUnauthorized)
	}

	if !VerifyPassword(req.Password, identity.PasswordHash) {
		s.logger.Debug().Str("user_id", identity.ID).Msg("login rejected: invalid credentials")
		return failure(StatusBadRequest, "Invalid credentials", http.StatusUnauthorized)
	}

	token, _, err := s.tokens.Issue(ClaimsFor(identity))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.ID).Msg("token issue failed")
		return failure(StatusBadRequest, "Authentication failed", http.StatusUnauthorized)
	}

	s.logger.Info().Str("user_id", identity.ID).Msg("login successful")
	return Response{
		Status:  StatusSuccess,
		Message: "Login successful",
		Data: SessionData{
			AccessToken: token,
			User:        identity.View(),
		},
	}
}

// Register creates an identity without roles. The caller's bearer token is
// echoed back for continuity; it does not grant the new identity anything.
func (s *Service) Register(ctx context.Context, req *RegisterRequest, authorization string) Response {
	if req == nil {
		return failure(StatusBadRequest, "No payload provided", http.StatusBadRequest)
	}
	req.Email = NormalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := s.validate.Struct(req); err != nil {
		return failure(StatusBadRequest, validationMessage(err), http.StatusBadRequest)
	}

	token, ok := ExtractBearerToken(authorization)
	if !ok {
		s.logger.Debug().Msg("registration rejected: missing or malformed authorization header")
		return registrationFailed()
	}

	taken, err := s.identities.EmailTaken(ctx, req.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("email lookup failed")
		return registrationFailed()
	}
	if taken {
		return emailTaken()
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("password hash failed")
		return registrationFailed()
	}
	identity := &Identity{
		ID:           ids.NewIdentityID(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return emailTaken()
		}
		s.logger.Error().Err(err).Msg("identity create failed")
		return registrationFailed()
	}

	s.logger.Debug().Str("user_id", identity.ID).Msg("identity registered")
	return Response{
		Status:     StatusSuccess,
		Message:    "Registration successful",
		StatusCode: http.StatusCreated,
		Data: SessionData{
			AccessToken: token,
			User:        identity.View(),
		},
	}
}

// Profile returns the requester's own identity. Any other id is refused.
func (s *Service) Profile(ctx context.Context, requester *SessionClaims, userID string) Response {
	if requester == nil || requester.UserID != userID {
		return failure(StatusError, "Unauthorized", http.StatusForbidden)
	}
	identity, err := s.resolver.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(StatusError, fmt.Sprintf("User with id %s not found", userID), http.StatusNotFound)
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("profile lookup failed")
		return failure(StatusError, "Unable to fetch user", http.StatusInternalServerError)
	}
	return Response{
		Status:  StatusSuccess,
		Message: "User data fetched successfully",
		Data:    identity.View(),
	}
}

func failure(status, message string, code int) Response {
	return Response{Status: status, Message: message, StatusCode: code}
}

func registrationFailed() Response {
	return failure(StatusBadRequest, "Registration unsuccessful", http.StatusBadRequest)
}

func emailTaken() Response {
	return failure(StatusBadRequest, "Email has been taken", http.StatusBadRequest)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid payload"
	}
	fe := verrs[0]
	field := fieldJSONName(fe.Field())
	if fe.Tag() == "email" {
		return fmt.Sprintf("%s must be a valid email address", field)
	}
	return fmt.Sprintf("%s is required", field)
}

func fieldJSONName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
