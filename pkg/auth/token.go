package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// clockSkew tolerates small drift between the account service and this API.
const clockSkew = 30 * time.Second

var (
	ErrSecretRequired = errors.New("jwt secret is required")
	ErrTokenExpired   = jwt.ErrTokenExpired
)

// Verifier checks bearer tokens issued by the account service. Build it once
// per process; it is safe for concurrent use.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(cfg config.JWTConfig) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, ErrSecretRequired
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &Verifier{secret: []byte(cfg.Secret), parser: jwt.NewParser(opts...)}, nil
}

// Verify returns the token's claims with UserID resolved, falling back to sub
// for tokens that predate the user_id claim.
func (v *Verifier) Verify(tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if _, err := v.parser.ParseWithClaims(tokenString, claims, v.key); err != nil {
		return nil, err
	}
	id, err := claims.Identity()
	if err != nil {
		return nil, err
	}
	claims.UserID = id
	return claims, nil
}

func (v *Verifier) key(*jwt.Token) (any, error) {
	return v.secret, nil
}

// ParseAccessToken is a one-shot Verify for callers without a Verifier.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	v, err := NewVerifier(cfg)
	if err != nil {
		return nil, err
	}
	return v.Verify(tokenString)
}

// MintAccessToken issues a signed JWT valid for ttl. The API only verifies
// tokens; minting exists for the account service and tests.
func MintAccessToken(cfg config.JWTConfig, now time.Time, ttl time.Duration, payload AccessTokenPayload) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", ErrSecretRequired
	case cfg.Issuer == "":
		return "", fmt.Errorf("jwt issuer is required")
	case ttl <= 0:
		return "", fmt.Errorf("jwt ttl must be positive")
	case payload.UserID == uuid.Nil:
		return "", fmt.Errorf("user id is required")
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Email:  payload.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}
