package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the session token lifetime used when no explicit TTL is
// configured.
const DefaultTTL = 2 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims includes the registered claims plus the user document id as subject.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256 session tokens. Validation is stateless:
// only the signature and expiry are checked, so issued tokens cannot be
// revoked before they expire.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl}
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed token for the given user id and its expiry time.
func (i *Issuer) Issue(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Validate returns the user id carried by the token, or ErrInvalidToken when
// the signature does not verify or the token has expired.
func (i *Issuer) Validate(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
