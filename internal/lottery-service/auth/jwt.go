package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "ova-3d-platform"

// Principal é o usuário autenticado de uma requisição
type Principal struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (p Principal) IsAdmin() bool { return p.Role == "ADMIN" }

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`

	jwt.RegisteredClaims
}

// JWT assina e valida tokens HS256
type JWT struct {
	Secret   []byte
	TokenTTL time.Duration
}

func (j JWT) Sign(p Principal) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(j.TokenTTL)
	claims := Claims{
		Username: p.Username,
		Role:     p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expiresAt, nil
}

func (j JWT) Verify(token string) (Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return Principal{}, err
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return Principal{}, errors.New("invalid token")
	}
	return Principal{UserID: c.Subject, Username: c.Username, Role: c.Role}, nil
}
