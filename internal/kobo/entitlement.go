package kobo

// NewEntitlementItem is one sync list entry announcing a new or updated
// book, or a tombstone for a removed one.
type NewEntitlementItem struct {
	NewEntitlement NewEntitlement `json:"NewEntitlement"`
}

type NewEntitlement struct {
	BookEntitlement BookEntitlement `json:"BookEntitlement"`
	ReadingState    ReadingState    `json:"ReadingState"`
	BookMetadata    BookMetadata    `json:"BookMetadata"`
}

type BookEntitlement struct {
	ActivePeriod        ActivePeriod `json:"ActivePeriod"`
	IsRemoved           bool         `json:"IsRemoved"`
	Status              string       `json:"Status"`
	Accessibility       string       `json:"Accessibility"`
	CrossRevisionID     string       `json:"CrossRevisionId"`
	RevisionID          string       `json:"RevisionId"`
	IsHiddenFromArchive bool         `json:"IsHiddenFromArchive"`
	ID                  string       `json:"Id"`
	Created             string       `json:"Created"`
	LastModified        string       `json:"LastModified"`
	IsLocked            bool         `json:"IsLocked"`
	OriginCategory      string       `json:"OriginCategory"`
}

type ActivePeriod struct {
	From string `json:"From"`
}

// NewBookEntitlement builds the entitlement block for a book. Removed
// entitlements double as tombstones: the device drops the book from its
// library and archive.
func NewBookEntitlement(bookID string, removed bool) BookEntitlement {
	now := NowString()
	return BookEntitlement{
		ActivePeriod:        ActivePeriod{From: now},
		IsRemoved:           removed,
		Status:              "Active",
		Accessibility:       "Full",
		CrossRevisionID:     bookID,
		RevisionID:          bookID,
		IsHiddenFromArchive: removed,
		ID:                  bookID,
		Created:             now,
		LastModified:        now,
		IsLocked:            false,
		OriginCategory:      "Purchased",
	}
}
