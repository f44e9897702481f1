package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks HS256 bearer tokens issued by the account backend. The
// subject claim carries the user id.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify returns the user id of a valid token. Every failure wraps
// domain.ErrUnauthenticated.
func (v *Verifier) Verify(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// Issue signs a token for userID. Used by agencyctl and tests.
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
