package entities

// CapabilityToken grants one-shot access to a single protected resource
// (a book file or a cover image). Redemption deletes the row, so a token
// can never be used twice. Expiration is unix seconds.
type CapabilityToken struct {
	Token      string `gorm:"primaryKey;size:512" json:"token"`
	ResourceID string `gorm:"size:128;index" json:"resource_id"`
	Owner      string `gorm:"size:64" json:"owner"`
	Expiration int64  `json:"expiration"`
}

// AnnotationTag is the per-book change tag devices compare against to
// decide whether their cached annotations are stale. One row per book that
// has ever had its annotations fetched.
type AnnotationTag struct {
	ResourceID string `gorm:"primaryKey;size:128" json:"resource_id"`
	Tag        string `gorm:"size:64" json:"tag"`
}

func (CapabilityToken) TableName() string { return "capability_tokens" }
func (AnnotationTag) TableName() string   { return "annotation_tags" }
