package backend

// SyncDelta is the backend's answer to "what changed since this cursor",
// partitioned by change category. Every entry is a book or shelf ID.
type SyncDelta struct {
	Book  BookDelta  `json:"book"`
	Shelf ShelfDelta `json:"shelf"`
}

type BookDelta struct {
	File        []string `json:"file"`
	Metadata    []string `json:"metadata"`
	Cover       []string `json:"cover"`
	State       []string `json:"state"`
	Annotations []string `json:"annotations"`
	Deleted     []string `json:"deleted"`
}

type ShelfDelta struct {
	Metadata []string `json:"metadata"`
	Contents []string `json:"contents"`
	Deleted  []string `json:"deleted"`
}

// Metadata is the backend's descriptive metadata for a book.
type Metadata struct {
	Title           *string       `json:"title"`
	Subtitle        *string       `json:"subtitle"`
	Description     *string       `json:"description"`
	Publisher       *string       `json:"publisher"`
	PublicationDate *int64        `json:"publication_date"`
	ISBN            *string       `json:"isbn"`
	Contributors    []Contributor `json:"contributors"`
	Genres          []string      `json:"genres"`
	Series          *Series       `json:"series"`
	PageCount       *int64        `json:"page_count"`
	Language        *string       `json:"language"`
}

type Contributor struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type Series struct {
	Title  string  `json:"title"`
	Number float64 `json:"number"`
}

// FileMetadata describes the stored book file.
type FileMetadata struct {
	OwnerID  string `json:"owner_id"`
	FileSize int64  `json:"file_size"`
}

// ReadingState is the backend's view of where a user is in a book.
type ReadingState struct {
	Location   *Location  `json:"location"`
	Statistics Statistics `json:"statistics"`
}

type Location struct {
	Tag    *string `json:"tag"`
	Source *string `json:"source"`
}

type Statistics struct {
	Rating        *float64 `json:"rating"`
	ReadingStatus string   `json:"reading_status"`
}

// Annotation is one highlight or note attached to a book.
type Annotation struct {
	AnnotationID string  `json:"annotation_id"`
	Source       string  `json:"source"`
	StartTag     string  `json:"start_tag"`
	EndTag       string  `json:"end_tag"`
	StartChar    int     `json:"start_char"`
	EndChar      int     `json:"end_char"`
	Note         *string `json:"note"`
}

// AnnotationRequest is the payload for creating an annotation.
type AnnotationRequest struct {
	Source    string  `json:"source"`
	StartTag  string  `json:"start_tag"`
	EndTag    string  `json:"end_tag"`
	StartChar int     `json:"start_char"`
	EndChar   int     `json:"end_char"`
	Note      *string `json:"note"`
}

// ShelfMetadata describes a shelf without its contents.
type ShelfMetadata struct {
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	BookCount int64  `json:"book_count"`
}
