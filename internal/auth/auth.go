package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleCaptain  = "captain"
	RoleDirector = "director"

	tokenIssuer = "courtline-api"
	tokenTTL    = 24 * time.Hour
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Captain is one login record from the "captains" collection.
type Captain struct {
	Username     string     `json:"username"`
	PasswordHash string     `json:"passwordHash"`
	Role         string     `json:"role"`
	TeamID       *uuid.UUID `json:"teamId,omitempty"`
}

// CaptainsDocument is the payload of the "captains" collection.
type CaptainsDocument struct {
	Captains []Captain `json:"captains"`
}

// Identity is the authenticated caller: a team captain or the league
// director.
type Identity struct {
	Username string
	Role     string
	TeamID   *uuid.UUID
}

type claims struct {
	Role   string `json:"role"`
	TeamID string `json:"teamId,omitempty"`
	jwt.RegisteredClaims
}

// Login checks the password against the stored bcrypt hash and mints a
// signed token.
func Login(doc CaptainsDocument, username, password, secret string, now time.Time) (string, error) {
	for _, c := range doc.Captains {
		if c.Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
			return "", ErrInvalidCredentials
		}
		return mint(c, secret, now)
	}
	return "", ErrInvalidCredentials
}

// HashPassword produces the bcrypt hash stored in the captains collection.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func mint(c Captain, secret string, now time.Time) (string, error) {
	cl := claims{
		Role: c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Username,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	if c.TeamID != nil {
		cl.TeamID = c.TeamID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString([]byte(secret))
}

// Verify parses and validates a token and returns the caller's identity.
func Verify(token, secret string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return Identity{}, err
	}
	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Identity{}, errors.New("invalid token claims")
	}

	id := Identity{Username: cl.Subject, Role: cl.Role}
	if cl.TeamID != "" {
		teamID, err := uuid.Parse(cl.TeamID)
		if err != nil {
			return Identity{}, errors.New("invalid team claim")
		}
		id.TeamID = &teamID
	}
	return id, nil
}
