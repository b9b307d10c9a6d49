package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
	ErrInvalidName  = errors.New("display name must be 1-32 characters")
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"

	maxNameLength = 32
)

// Claims holds the JWT payload. Name is the display name players see.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Guest  bool   `json:"guest,omitempty"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller attached to a request or connection.
type Identity struct {
	UserID string
	Name   string
	Guest  bool
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTManager creates a JWTManager with the given secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		accessExpiry:  12 * time.Hour,
		refreshExpiry: 7 * 24 * time.Hour,
	}
}

// TokenPair holds an access and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
}

// IssueGuest mints tokens for a new guest identity with the given name.
func (m *JWTManager) IssueGuest(name string) (*TokenPair, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	return m.issue(Identity{UserID: "guest-" + uuid.New().String(), Name: name, Guest: true})
}

// Issue mints tokens for an identity established elsewhere, e.g. OAuth.
func (m *JWTManager) Issue(id Identity) (*TokenPair, error) {
	name, err := CleanName(id.Name)
	if err != nil {
		return nil, err
	}
	id.Name = name
	return m.issue(id)
}

// Refresh exchanges a valid refresh token for a new pair.
func (m *JWTManager) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := m.parse(refreshToken)
	if err != nil || claims.Type != tokenRefresh {
		return nil, ErrInvalidToken
	}
	return m.issue(claims.identity())
}

// ValidateToken parses an access token and returns its identity.
func (m *JWTManager) ValidateToken(tokenStr string) (*Identity, error) {
	if tokenStr == "" {
		return nil, ErrMissingToken
	}
	claims, err := m.parse(tokenStr)
	if err != nil || claims.Type != tokenAccess {
		return nil, ErrInvalidToken
	}
	id := claims.identity()
	return &id, nil
}

// CleanName trims a display name and checks its length.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

func (m *JWTManager) issue(id Identity) (*TokenPair, error) {
	access, err := m.sign(id, tokenAccess, m.accessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(id, tokenRefresh, m.refreshExpiry)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(m.accessExpiry.Seconds()),
		UserID:       id.UserID,
		Name:         id.Name,
	}, nil
}

func (m *JWTManager) sign(id Identity, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: id.UserID,
		Name:   id.Name,
		Guest:  id.Guest,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   id.UserID,
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *JWTManager) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *Claims) identity() Identity {
	return Identity{UserID: c.UserID, Name: c.Name, Guest: c.Guest}
}
