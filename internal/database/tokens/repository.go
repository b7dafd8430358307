// Package tokens implements the capability-token issuer.
//
// A capability token scopes access to exactly one protected resource (a
// book file or a cover image) and redeems successfully at most once:
// redemption is a single DELETE ... RETURNING statement, so two concurrent
// redemptions of the same token cannot both observe the row.
package tokens

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tiago-cos/prosa-kobo/internal/entities"
)

// ErrInvalidToken covers every redemption failure: unknown token, expired
// token, and token presented against the wrong resource. Callers must not
// be able to distinguish the cases.
var ErrInvalidToken = errors.New("invalid token")

// BookResource scopes a token to a book file. A token issued for a book
// cannot redeem that book's cover, and vice versa.
func BookResource(bookID string) string { return "book:" + bookID }

// CoverResource scopes a token to a cover image.
func CoverResource(bookID string) string { return "cover:" + bookID }

// Repository handles capability token issuance and redemption.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tokens repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Issue mints a token of size random bytes granting access to resourceID
// for ttl. Owner is the device ID the token was minted for; it is returned
// on redemption so the caller can re-resolve it to a live API key. Multiple
// live tokens may exist for the same resource.
func (r *Repository) Issue(resourceID, owner string, ttl time.Duration, size int) (string, error) {
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(raw)

	record := entities.CapabilityToken{
		Token:      token,
		ResourceID: resourceID,
		Owner:      owner,
		Expiration: time.Now().Add(ttl).Unix(),
	}
	if err := r.db.Create(&record).Error; err != nil {
		return "", err
	}
	return token, nil
}

// Redeem consumes a token and returns its owner. The row is deleted
// unconditionally once read, whether redemption succeeds or not, so a
// token is spent by its first presentation regardless of outcome.
func (r *Repository) Redeem(resourceID, token string) (string, error) {
	var record entities.CapabilityToken
	result := r.db.Raw(
		"DELETE FROM capability_tokens WHERE token = ? RETURNING token, resource_id, owner, expiration",
		token,
	).Scan(&record)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", ErrInvalidToken
	}

	if time.Now().Unix() > record.Expiration {
		return "", ErrInvalidToken
	}
	if record.ResourceID != resourceID {
		return "", ErrInvalidToken
	}
	return record.Owner, nil
}

// DeleteExpired removes tokens past their expiration. Redemption handles
// expiry lazily on its own; this only exists for the scheduled sweep.
func (r *Repository) DeleteExpired() (int64, error) {
	result := r.db.Where("expiration < ?", time.Now().Unix()).
		Delete(&entities.CapabilityToken{})
	return result.RowsAffected, result.Error
}
