package auth

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/dkeye/classroom/internal/domain"
)

var validMethods = []string{"HS256", "HS384", "HS512"}

// JWTVerifier checks HMAC-signed tokens issued by the course API.
type JWTVerifier struct {
	secret        []byte
	issuer        string
	requireExpiry bool
	now           func() time.Time
}

type JWTOption func(*JWTVerifier)

// WithIssuer makes the iss claim mandatory and pins its value.
func WithIssuer(issuer string) JWTOption {
	return func(v *JWTVerifier) { v.issuer = strings.TrimSpace(issuer) }
}

// WithRequiredExpiry rejects tokens without an exp claim.
func WithRequiredExpiry() JWTOption {
	return func(v *JWTVerifier) { v.requireExpiry = true }
}

func WithClock(now func() time.Time) JWTOption {
	return func(v *JWTVerifier) { v.now = now }
}

// tokenClaims is the internal claims type used for JWT parsing. The course
// API puts the user id in uid, _id or id and the role in rol or role; sub is
// the last fallback for the id.
type tokenClaims struct {
	jwt.RegisteredClaims
	UID     claimID `json:"uid,omitempty"`
	MongoID claimID `json:"_id,omitempty"`
	PlainID claimID `json:"id,omitempty"`
	Rol     string  `json:"rol,omitempty"`
	Role    string  `json:"role,omitempty"`
}

func (c *tokenClaims) participantID() string {
	for _, id := range []string{string(c.UID), string(c.MongoID), string(c.PlainID), c.Subject} {
		if id = strings.TrimSpace(id); id != "" {
			return id
		}
	}
	return ""
}

func (c *tokenClaims) role() string {
	if strings.TrimSpace(c.Rol) != "" {
		return c.Rol
	}
	return c.Role
}

// claimID accepts an id claim encoded as a JSON string or number.
type claimID string

func (id *claimID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = claimID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Wrap(err, "id claim")
	}
	*id = claimID(n.String())
	return nil
}

func NewJWTVerifier(secret []byte, opts ...JWTOption) (*JWTVerifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt verifier: empty secret")
	}
	v := &JWTVerifier{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, errors.Wrap(ErrVerifierUnavailable, err.Error())
	}
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Identity{}, ErrMissingCredential
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(validMethods),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.requireExpiry {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, mapJWTError(err)
	}

	uid := claims.participantID()
	if uid == "" {
		return Identity{}, errors.Wrap(ErrInvalidCredential, "token carries no participant id")
	}
	role, err := domain.ParseRole(claims.role())
	if err != nil {
		return Identity{}, errors.Wrapf(ErrInvalidCredential, "role claim %q", claims.role())
	}
	return Identity{ParticipantID: uid, Role: role}, nil
}

// mapJWTError translates jwt library errors to handshake errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.Wrap(ErrMalformedCredential, err.Error())
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.Wrap(ErrInvalidCredential, "token expired")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return errors.Wrap(ErrInvalidCredential, "signature invalid")
	default:
		return errors.Wrap(ErrInvalidCredential, err.Error())
	}
}
