// Package devices implements the device identity store and its linkage
// state machine.
//
// A device is either linked (it carries a backend API key) or unlinked
// (seen, waiting for an administrator to link it). The two states live in
// separate tables and every transition moves a row from one to the other
// inside a single transaction, so concurrent link attempts cannot leave a
// device in both states.
package devices

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tiago-cos/prosa-kobo/internal/entities"
)

var (
	ErrDeviceNotFound      = errors.New("device not found")
	ErrDeviceAlreadyLinked = errors.New("device already linked")
	ErrInvalidAPIKey       = errors.New("invalid api key")
)

// Repository handles all device linkage database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new devices repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// HashDeviceID derives the stored device identifier from the raw identifier
// a device reports and the user's key. The raw identifier never touches the
// database.
func HashDeviceID(rawDeviceID, userKey string) string {
	digest := sha256.Sum256([]byte(rawDeviceID + userKey))
	return base64.StdEncoding.EncodeToString(digest[:])
}

// IsValidAPIKey reports whether key looks like a backend API key: non-empty
// after trimming and composed of base64 alphabet characters. The backend is
// the actual authority on whether the key is honored.
func IsValidAPIKey(key string) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	for _, c := range key {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '+' || c == '/' || c == '=':
		default:
			return false
		}
	}
	return true
}

// RecordUnlinked registers a device as unlinked with the current timestamp.
// It is idempotent and a no-op if the device is currently linked, so a stray
// unauthenticated request cannot demote a linked device.
func (r *Repository) RecordUnlinked(deviceID string) error {
	var linked entities.LinkedDevice
	err := r.db.Where("device_id = ?", deviceID).First(&linked).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	record := entities.UnlinkedDevice{DeviceID: deviceID, Timestamp: time.Now().Unix()}
	return r.db.Save(&record).Error
}

// Link associates a device with an API key. The device must currently be
// unlinked: it must have been seen unauthenticated at least once and must
// not already hold a key.
func (r *Repository) Link(deviceID, apiKey string) error {
	if !IsValidAPIKey(apiKey) {
		return ErrInvalidAPIKey
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var unlinked entities.UnlinkedDevice
		if err := tx.Where("device_id = ?", deviceID).First(&unlinked).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeviceNotFound
			}
			return err
		}

		var linked entities.LinkedDevice
		err := tx.Where("device_id = ?", deviceID).First(&linked).Error
		if err == nil {
			return ErrDeviceAlreadyLinked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&entities.LinkedDevice{DeviceID: deviceID, APIKey: apiKey}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.UnlinkedDevice{}, "device_id = ?", deviceID).Error
	})
}

// Unlink removes the association between a device and an API key. The
// (deviceID, apiKey) pair must match an existing linked row exactly; the
// device then re-enters the unlinked state with a fresh timestamp.
func (r *Repository) Unlink(deviceID, apiKey string) error {
	if !IsValidAPIKey(apiKey) {
		return ErrInvalidAPIKey
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("device_id = ? AND api_key = ?", deviceID, apiKey).
			Delete(&entities.LinkedDevice{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDeviceNotFound
		}

		record := entities.UnlinkedDevice{DeviceID: deviceID, Timestamp: time.Now().Unix()}
		return tx.Save(&record).Error
	})
}

// Resolve returns the API key a linked device acts on behalf of, or
// ErrDeviceNotFound if the device is not linked.
func (r *Repository) Resolve(deviceID string) (string, error) {
	var linked entities.LinkedDevice
	err := r.db.Where("device_id = ?", deviceID).First(&linked).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrDeviceNotFound
	}
	if err != nil {
		return "", err
	}
	return linked.APIKey, nil
}

// ListUnlinked returns every device waiting to be linked.
func (r *Repository) ListUnlinked() ([]entities.UnlinkedDevice, error) {
	var unlinked []entities.UnlinkedDevice
	err := r.db.Order("timestamp").Find(&unlinked).Error
	return unlinked, err
}

// ListLinked returns the device IDs linked to the given API key.
func (r *Repository) ListLinked(apiKey string) ([]string, error) {
	if !IsValidAPIKey(apiKey) {
		return nil, ErrInvalidAPIKey
	}
	var ids []string
	err := r.db.Model(&entities.LinkedDevice{}).
		Where("api_key = ?", apiKey).
		Pluck("device_id", &ids).Error
	return ids, err
}
