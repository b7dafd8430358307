// Package annotations implements the per-book annotation change tracker.
//
// Each book that has ever had its annotations fetched owns one opaque tag.
// The tag is rotated when the backend reports an annotation change; a
// device whose cached tag differs from the stored one must refetch all
// annotations for that book. This is a full-refresh protocol, not a diff.
package annotations

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tiago-cos/prosa-kobo/internal/entities"
)

// ChangeCheck pairs a book with the tag a device last saw for it.
type ChangeCheck struct {
	ResourceID string `json:"ContentId"`
	KnownTag   string `json:"Etag"`
}

// Repository handles annotation tag storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new annotation tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func newTag() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate tag: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// GetTag returns the stored tag for a book, minting and persisting one on
// first access so the initial fetch establishes the baseline.
func (r *Repository) GetTag(resourceID string) (string, error) {
	var record entities.AnnotationTag
	err := r.db.Where("resource_id = ?", resourceID).First(&record).Error
	if err == nil {
		return record.Tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	tag, err := newTag()
	if err != nil {
		return "", err
	}
	record = entities.AnnotationTag{ResourceID: resourceID, Tag: tag}
	if err := r.db.Create(&record).Error; err != nil {
		// Lost a race against a concurrent first access; the winner's tag
		// is the baseline.
		var existing entities.AnnotationTag
		if lookupErr := r.db.Where("resource_id = ?", resourceID).First(&existing).Error; lookupErr == nil {
			return existing.Tag, nil
		}
		return "", err
	}
	return tag, nil
}

// Rotate overwrites the stored tag with a fresh random value,
// unconditionally. Called when the backend reports that a book's
// annotations changed, and nowhere else.
func (r *Repository) Rotate(resourceID string) error {
	tag, err := newTag()
	if err != nil {
		return err
	}
	record := entities.AnnotationTag{ResourceID: resourceID, Tag: tag}
	return r.db.Save(&record).Error
}

// Clear removes a book's tag entirely; used when the book itself is
// deleted.
func (r *Repository) Clear(resourceID string) error {
	return r.db.Delete(&entities.AnnotationTag{}, "resource_id = ?", resourceID).Error
}

// Changed returns the resource IDs whose stored tag differs from the tag
// the device presented. Books with no stored tag are skipped: the device
// cannot be stale about annotations that were never fetched through us.
func (r *Repository) Changed(checks []ChangeCheck) ([]string, error) {
	changed := make([]string, 0, len(checks))
	for _, check := range checks {
		var record entities.AnnotationTag
		err := r.db.Where("resource_id = ?", check.ResourceID).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if record.Tag != check.KnownTag {
			changed = append(changed, check.ResourceID)
		}
	}
	return changed, nil
}
