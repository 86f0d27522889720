// Package auth issues and reads the access tokens that scope sync requests
// to a user.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
const AccessTokenHeaderName = "access_token"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrNoUserID     = errors.New("token has no user id")
)

// Claims holds the registered claims plus the owning user.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	// DeviceID is informational; the remote may use it for auditing.
	DeviceID string `json:"did,omitempty"`
}

func GenerateToken(userID int, deviceID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   strconv.Itoa(userID),
		DeviceID: deviceID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// UserIDFromToken verifies the HS256 signature and expiry and returns the
// user id claim.
func UserIDFromToken(tokenString string, secretKey []byte) (int, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return 0, ErrTokenExpired
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return 0, ErrInvalidToken
	}

	return claims.userID()
}

// PeekUserID reads the user id claim without verifying the signature. The
// client uses it to scope its local cache; the remote still verifies.
func PeekUserID(tokenString string) (int, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.userID()
}

func (c *Claims) userID() (int, error) {
	if c.UserID == "" {
		return 0, ErrNoUserID
	}
	id, err := strconv.Atoi(c.UserID)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: user id %q", ErrInvalidToken, c.UserID)
	}
	return id, nil
}
