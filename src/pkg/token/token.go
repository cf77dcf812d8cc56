package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Validate parses and verifies an HS256 bearer token issued by the auth
// service and extracts the user metadata.
func Validate(tokenString, secret string) (*Claim, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	claim := &Claim{}
	if iss, ok := claims["iss"].(string); ok {
		claim.Iss = iss
	}
	if aud, ok := claims["aud"].(string); ok {
		claim.Aud = aud
	}
	meta, ok := claims["metadata"].(map[string]interface{})
	if !ok {
		return nil, ErrInvalidToken
	}
	if userID, ok := meta["user_id"].(string); ok {
		claim.Metadata.UserID = userID
	}
	if fullName, ok := meta["full_name"].(string); ok {
		claim.Metadata.FullName = fullName
	}
	if role, ok := meta["role"].(string); ok {
		claim.Metadata.Role = role
	}
	if claim.Metadata.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claim, nil
}
