// Package session implements the device session authority: issuing and
// verifying the signed, time-bounded credentials devices present on every
// request. Verification is a pure transform over the signing secret; no
// database access, no revocation list. Expiry is the only teardown.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpiredCredential   = errors.New("expired credential")
	ErrInvalidSignature    = errors.New("invalid credential signature")
	ErrMalformedCredential = errors.New("malformed credential")
)

// Claims is the signed claim set carried by a device credential.
type Claims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// Authority mints and verifies device session credentials. Both the access
// and the refresh credential of a device come from the same secret and
// differ only in TTL.
type Authority struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthority creates a session authority with the given signing secret
// and credential lifetimes.
func NewAuthority(secret []byte, accessTTL, refreshTTL time.Duration) *Authority {
	return &Authority{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// GenerateSecret produces a random signing secret, hex encoded. Used when
// no secret is configured; credentials then do not survive a restart.
func GenerateSecret() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// Issue builds a credential binding deviceID to an expiry of now+ttl and
// signs it.
func (a *Authority) Issue(deviceID string, ttl time.Duration) (string, error) {
	claims := Claims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

// IssuePair mints a fresh access/refresh credential pair for a device.
func (a *Authority) IssuePair(deviceID string) (access, refresh string, err error) {
	access, err = a.Issue(deviceID, a.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = a.Issue(deviceID, a.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// AccessTTL returns the configured access credential lifetime.
func (a *Authority) AccessTTL() time.Duration { return a.accessTTL }

// Verify checks a credential's signature and expiry and returns the device
// it was issued to.
func (a *Authority) Verify(credential string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	switch {
	case err == nil:
		if claims.DeviceID == "" {
			return "", ErrMalformedCredential
		}
		return claims.DeviceID, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpiredCredential
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", ErrInvalidSignature
	default:
		return "", ErrMalformedCredential
	}
}
