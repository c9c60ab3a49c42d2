package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/services"
)

const (
	identityKey = "identity"

	SessionHeader  = "X-Session-Key"
	SessionCookie  = "sessionid"
	GatewayUserID  = "X-User-ID"
	GatewayEmail   = "X-User-Email"
	bearerPrefix   = "Bearer "
	strategyBearer = "bearer"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID     uuid.UUID
	Email      string
	SessionKey string
	Source     string
}

// Strategy extracts an identity from one kind of credential. It returns
// nil, nil when the request does not carry that credential.
type Strategy interface {
	Name() string
	Resolve(c *gin.Context) (*Identity, error)
}

// AuthenticationResolver tries its strategies in order and stops at the
// first one that recognises the request.
type AuthenticationResolver struct {
	strategies []Strategy
}

func NewAuthenticationResolver(strategies ...Strategy) *AuthenticationResolver {
	r := &AuthenticationResolver{}
	for _, s := range strategies {
		if s != nil {
			r.strategies = append(r.strategies, s)
		}
	}
	return r
}

func (r *AuthenticationResolver) Resolve(c *gin.Context) (*Identity, error) {
	for _, s := range r.strategies {
		id, err := s.Resolve(c)
		if err != nil {
			return nil, err
		}
		if id != nil {
			id.Source = s.Name()
			return id, nil
		}
	}
	return nil, nil
}

// RequireAuth rejects requests without a valid identity.
func (r *AuthenticationResolver) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := r.Resolve(c)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		if id == nil {
			apperrors.Respond(c, apperrors.ErrAuthRequired)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// OptionalAuth attaches an identity when there is one and lets anonymous
// requests through.
func (r *AuthenticationResolver) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := r.Resolve(c)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		if id != nil {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity attached by RequireAuth or
// OptionalAuth.
func CurrentIdentity(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok && id != nil
}

// GetUserID returns the caller's user id, or uuid.Nil for anonymous
// requests.
func GetUserID(c *gin.Context) uuid.UUID {
	if id, ok := CurrentIdentity(c); ok {
		return id.UserID
	}
	return uuid.Nil
}

type TokenValidator interface {
	Validate(token string) (uuid.UUID, string, error)
}

// BearerStrategy reads "Authorization: Bearer <jwt>".
type BearerStrategy struct {
	Tokens TokenValidator
}

func (BearerStrategy) Name() string { return strategyBearer }

func (s BearerStrategy) Resolve(c *gin.Context) (*Identity, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, nil
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, apperrors.ErrInvalidToken.WithMessage("Authorization header must use the Bearer scheme")
	}
	userID, email, err := s.Tokens.Validate(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	return &Identity{UserID: userID, Email: email}, nil
}

type SessionLookup interface {
	Get(ctx context.Context, key string) (*services.Session, error)
}

// SessionHeaderStrategy reads a session key from the X-Session-Key header.
// An unknown key is an error.
type SessionHeaderStrategy struct {
	Sessions SessionLookup
}

func (SessionHeaderStrategy) Name() string { return "session_header" }

func (s SessionHeaderStrategy) Resolve(c *gin.Context) (*Identity, error) {
	key := c.GetHeader(SessionHeader)
	if key == "" {
		return nil, nil
	}
	session, err := s.Sessions.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return nil, apperrors.ErrInvalidToken.WithMessage("Invalid or expired session")
		}
		return nil, apperrors.Internal("Failed to load session", err)
	}
	return &Identity{UserID: session.UserID, Email: session.Email, SessionKey: key}, nil
}

// SessionCookieStrategy reads the sessionid cookie. A stale cookie is
// ignored so that later strategies and anonymous access still work.
type SessionCookieStrategy struct {
	Sessions SessionLookup
}

func (SessionCookieStrategy) Name() string { return "session_cookie" }

func (s SessionCookieStrategy) Resolve(c *gin.Context) (*Identity, error) {
	key, err := c.Cookie(SessionCookie)
	if err != nil || key == "" {
		return nil, nil
	}
	session, err := s.Sessions.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("Failed to load session", err)
	}
	return &Identity{UserID: session.UserID, Email: session.Email, SessionKey: key}, nil
}

// GatewayHeaderStrategy trusts identity headers set by an upstream API
// gateway. Only install it behind a gateway that strips these headers
// from client requests.
type GatewayHeaderStrategy struct{}

func (GatewayHeaderStrategy) Name() string { return "gateway" }

func (GatewayHeaderStrategy) Resolve(c *gin.Context) (*Identity, error) {
	raw := c.GetHeader(GatewayUserID)
	if raw == "" {
		return nil, nil
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.ErrInvalidToken.WithMessage("Invalid user id header")
	}
	return &Identity{UserID: userID, Email: c.GetHeader(GatewayEmail)}, nil
}

// Strategies builds the standard strategy order. Session strategies are
// skipped without a session store.
func Strategies(tokens TokenValidator, sessions SessionLookup, trustGateway bool) []Strategy {
	out := []Strategy{BearerStrategy{Tokens: tokens}}
	if sessions != nil {
		out = append(out, SessionHeaderStrategy{Sessions: sessions}, SessionCookieStrategy{Sessions: sessions})
	}
	if trustGateway {
		out = append(out, GatewayHeaderStrategy{})
	}
	return out
}
