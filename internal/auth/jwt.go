package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated teacher behind a request.
type Identity struct {
	TeacherID string
	Name      string
	Email     string
	Verified  bool
}

// Claims represents the session JWT payload. The teacher id is the
// registered subject.
type Claims struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	jwt.RegisteredClaims
}

// Issue signs a session token for id that expires after ttl.
func Issue(id Identity, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)

	claims := Claims{
		Name:     id.Name,
		Email:    id.Email,
		Verified: id.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.TeacherID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token and returns the identity it carries.
func Parse(tokenStr, key, issuer string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Identity{}, errors.New("issuer mismatch")
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("missing subject")
	}
	return Identity{
		TeacherID: claims.Subject,
		Name:      claims.Name,
		Email:     claims.Email,
		Verified:  claims.Verified,
	}, nil
}
