package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrSameSecrets is returned when access and refresh secrets are equal.
var ErrSameSecrets = errors.New("access and refresh secrets must differ")

// TokenIssuer implements ports.TokenIssuer with HS256. Access and refresh tokens are
// signed with different secrets, so one kind never validates as the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	now           func() time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Type  string `json:"typ"`
}

func NewTokenIssuer(accessSecret, refreshSecret, issuer string) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("jwt secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, ErrSameSecrets
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		now:           time.Now,
	}, nil
}

func (t *TokenIssuer) IssueAccessToken(userID domain.UserID, email string, ttl time.Duration) (string, error) {
	token, _, err := t.sign(userID, email, tokenTypeAccess, t.accessSecret, ttl)
	return token, err
}

func (t *TokenIssuer) IssueRefreshToken(userID domain.UserID, email string, ttl time.Duration) (string, *ports.TokenClaims, error) {
	return t.sign(userID, email, tokenTypeRefresh, t.refreshSecret, ttl)
}

func (t *TokenIssuer) ValidateAccessToken(tokenString string) (*ports.TokenClaims, error) {
	return t.parse(tokenString, tokenTypeAccess, t.accessSecret)
}

func (t *TokenIssuer) ValidateRefreshToken(tokenString string) (*ports.TokenClaims, error) {
	return t.parse(tokenString, tokenTypeRefresh, t.refreshSecret)
}

func (t *TokenIssuer) sign(userID domain.UserID, email, typ string, secret []byte, ttl time.Duration) (string, *ports.TokenClaims, error) {
	now := t.now()
	// exp has second precision; truncate so the stored record agrees with the claim.
	expiresAt := now.Add(ttl).Truncate(time.Second)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
		Type:  typ,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, &ports.TokenClaims{UserID: userID, Email: email, ExpiresAt: expiresAt}, nil
}

func (t *TokenIssuer) parse(tokenString, typ string, secret []byte) (*ports.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("unexpected token type %q", claims.Type)
	}
	userID, err := domain.ParseUserID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return &ports.TokenClaims{
		UserID:    userID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

var _ ports.TokenIssuer = (*TokenIssuer)(nil)
