package api

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

// Auth signs and validates the HS256 bearer tokens the API issues itself.
type Auth struct {
	secret []byte
	ttl    time.Duration

	parser *jwt.Parser
}

// NewAuth creates an Auth signing tokens with the given shared secret. Tokens
// expire after ttl; a non-positive ttl falls back to 24 hours.
func NewAuth(secret []byte, ttl time.Duration) *Auth {
	if len(secret) == 0 {
		panic("api.NewAuth: empty signing secret")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Auth{
		secret: secret,
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// GenerateToken mints a signed token for the given user.
func (a *Auth) GenerateToken(userID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(a.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// UserIDFromAuthHeader extracts the user identifier from the Authorization
// header, validating the bearer token's signature and expiry.
func (a *Auth) UserIDFromAuthHeader(header string) (string, error) {
	tokenStr, err := bearerTokenFromHeader(header)
	if err != nil {
		return "", err
	}

	token, err := a.parser.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	now := time.Now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", errors.New("token expired")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

// bearerTokenFromHeader strips the Bearer prefix and rejects anything that
// does not look like a compact JWT before signature verification runs.
func bearerTokenFromHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingAuthorization
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errBadAuthorization
	}
	tokenStr := strings.TrimSpace(parts[1])
	if tokenStr == "" || strings.Count(tokenStr, ".") != 2 {
		return "", errBadAuthorization
	}
	return tokenStr, nil
}
