package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	jwt.RegisteredClaims
}

// JWTManager signs and verifies the stateless access tokens and the
// refresh tokens whose durable record lives in the refresh-token table.
// Both are signed with one process-wide secret; the algorithm comes from
// config and is restricted to the HMAC family.
type JWTManager struct {
	secret     []byte
	method     jwt.SigningMethod
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJWTManager(secret, algorithm, issuer string, accessTTL, refreshTTL time.Duration) (*JWTManager, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", algorithm)
	}
	return &JWTManager{
		secret:     []byte(secret),
		method:     method,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (m *JWTManager) CreateAccessToken(userID uuid.UUID) (string, error) {
	return m.sign(userID, m.accessTTL, "")
}

// CreateRefreshToken carries a random jti so every issued token is a
// distinct, unguessable value even when two are minted within the same
// second for the same user.
func (m *JWTManager) CreateRefreshToken(userID uuid.UUID) (string, time.Time, error) {
	jti, err := NewRandomString(16)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().UTC().Add(m.refreshTTL)
	token, err := m.sign(userID, m.refreshTTL, jti)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (m *JWTManager) sign(userID uuid.UUID, ttl time.Duration, jti string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
}

// Decode verifies signature and expiry. Claims from a token with a bad
// signature are never returned; an expired-but-valid signature yields
// ErrTokenExpired so callers can distinguish the two.
func (m *JWTManager) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Subject extracts the user id carried by the token claims.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return id, nil
}
