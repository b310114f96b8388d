package auth

import (
	"errors"
	"time"

	"vet-backend/internal/models"
	"vet-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

// OwnerClaims represents JWT claims for owner portal authentication
type OwnerClaims struct {
	OwnerID int    `json:"owner_id"`
	Phone   string `json:"phone"`
	Name    string `json:"name"`
	IsOwner bool   `json:"is_owner"`
	jwt.RegisteredClaims
}

// GenerateOwnerToken creates a new JWT token for an owner
func (j *JWTManager) GenerateOwnerToken(owner *models.Owner, rememberMe bool) (string, error) {
	now := timeutil.Now()
	var expirationTime time.Time

	if rememberMe {
		expirationTime = now.Add(30 * 24 * time.Hour)
	} else {
		expirationTime = now.Add(24 * time.Hour)
	}

	claims := &OwnerClaims{
		OwnerID: owner.ID,
		Phone:   owner.Phone,
		Name:    owner.Name,
		IsOwner: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.cfg.JWT.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.JWT.Secret))
}

// ValidateOwnerToken verifies an owner JWT token and returns the claims
func (j *JWTManager) ValidateOwnerToken(tokenString string) (*OwnerClaims, error) {
	claims := &OwnerClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(j.cfg.JWT.Secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	// Staff tokens must never pass as owner tokens
	if !claims.IsOwner {
		return nil, errors.New("not an owner token")
	}

	return claims, nil
}
