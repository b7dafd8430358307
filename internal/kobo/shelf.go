package kobo

// NewShelfItem is one sync list entry announcing a new or renamed shelf
// ("tag" in device terms) together with its full contents.
type NewShelfItem struct {
	NewTag ShelfTagBody `json:"NewTag"`
}

// DeletedShelfItem is the tombstone for a removed shelf.
type DeletedShelfItem struct {
	DeletedTag ShelfTagBody `json:"DeletedTag"`
}

type ShelfTagBody struct {
	Tag ShelfTag `json:"Tag"`
}

type ShelfTag struct {
	ID           string      `json:"Id"`
	Name         *string     `json:"Name,omitempty"`
	Type         *string     `json:"Type,omitempty"`
	Items        []ShelfItem `json:"Items,omitempty"`
	Created      *string     `json:"Created,omitempty"`
	LastModified string      `json:"LastModified"`
}

type ShelfItem struct {
	RevisionID string `json:"RevisionId"`
	Type       string `json:"Type"`
}

// NewShelf builds the sync item for a shelf with the given member books.
func NewShelf(shelfID, name string, bookIDs []string) NewShelfItem {
	now := NowString()

	items := make([]ShelfItem, 0, len(bookIDs))
	for _, id := range bookIDs {
		items = append(items, ShelfItem{RevisionID: id, Type: "ProductRevisionTagItem"})
	}

	tagType := "UserTag"
	return NewShelfItem{
		NewTag: ShelfTagBody{
			Tag: ShelfTag{
				ID:           shelfID,
				Name:         &name,
				Type:         &tagType,
				Items:        items,
				Created:      &now,
				LastModified: now,
			},
		},
	}
}

// DeletedShelf builds the tombstone item for a removed shelf.
func DeletedShelf(shelfID string) DeletedShelfItem {
	return DeletedShelfItem{
		DeletedTag: ShelfTagBody{
			Tag: ShelfTag{ID: shelfID, LastModified: NowString()},
		},
	}
}
