package kobo

import (
	"strconv"

	"github.com/tiago-cos/prosa-kobo/internal/backend"
)

type BookMetadata struct {
	CrossRevisionID             string        `json:"CrossRevisionId"`
	RevisionID                  string        `json:"RevisionId"`
	Publisher                   Publisher     `json:"Publisher"`
	PublicationDate             *string       `json:"PublicationDate"`
	Language                    *string       `json:"Language"`
	ISBN                        *string       `json:"Isbn"`
	Subtitle                    *string       `json:"Subtitle"`
	Genre                       *string       `json:"Genre"`
	Slug                        *string       `json:"Slug"`
	CoverImageID                string        `json:"CoverImageId"`
	IsSocialEnabled             bool          `json:"IsSocialEnabled"`
	WorkID                      string        `json:"WorkId"`
	ExternalIDs                 []string      `json:"ExternalIds"`
	IsPreOrder                  bool          `json:"IsPreOrder"`
	ContributorRoles            []Contributor `json:"ContributorRoles"`
	IsInternetArchive           bool          `json:"IsInternetArchive"`
	IsAnnotationExportDisabled  bool          `json:"IsAnnotationExportDisabled"`
	IsAISummaryDisabled         bool          `json:"IsAiSummaryDisabled"`
	EntitlementID               string        `json:"EntitlementId"`
	Title                       *string       `json:"Title"`
	Description                 *string       `json:"Description"`
	Categories                  []string      `json:"Categories"`
	DownloadURLs                []DownloadURL `json:"DownloadUrls"`
	Contributors                []string      `json:"Contributors"`
	Series                      *Series       `json:"Series"`
	CurrentDisplayPrice         DisplayPrice  `json:"CurrentDisplayPrice"`
	CurrentLoveDisplayPrice     LovePrice     `json:"CurrentLoveDisplayPrice"`
	IsEligibleForKoboLove       bool          `json:"IsEligibleForKoboLove"`
	PhoneticPronunciations      *string       `json:"PhoneticPronunciations"`
	RelatedGroupID              *string       `json:"RelatedGroupId"`
	Locale                      Locale        `json:"Locale"`
}

type Publisher struct {
	Name    *string `json:"Name"`
	Imprint *string `json:"Imprint"`
}

type Contributor struct {
	Name string `json:"Name"`
	Role string `json:"Role"`
}

type DownloadURL struct {
	DrmType  string `json:"DrmType"`
	Format   string `json:"Format"`
	URL      string `json:"Url"`
	Platform string `json:"Platform"`
	Size     int64  `json:"Size"`
}

type Series struct {
	ID          string  `json:"Id"`
	Name        string  `json:"Name"`
	Number      string  `json:"Number"`
	NumberFloat float64 `json:"NumberFloat"`
}

type DisplayPrice struct {
	TotalAmount  int64  `json:"TotalAmount"`
	CurrencyCode string `json:"CurrencyCode"`
}

type LovePrice struct {
	TotalAmount int64 `json:"TotalAmount"`
}

type Locale struct {
	LanguageCode string `json:"LanguageCode"`
	ScriptCode   string `json:"ScriptCode"`
	CountryCode  string `json:"CountryCode"`
}

// NewDownloadURL builds the single download entry the device uses to fetch
// a book file. The URL already carries its capability token.
func NewDownloadURL(url string, size int64) DownloadURL {
	return DownloadURL{
		DrmType:  "None",
		Format:   "KEPUB",
		URL:      url,
		Platform: "Generic",
		Size:     size,
	}
}

// TranslateMetadata maps backend metadata onto the device shape.
// coverImageID carries the tokenized cover reference the device turns into
// an image URL.
func TranslateMetadata(bookID string, metadata *backend.Metadata, downloadURL DownloadURL, coverImageID string) BookMetadata {
	contributorRoles := make([]Contributor, 0, len(metadata.Contributors))
	contributorNames := make([]string, 0, len(metadata.Contributors))
	for _, c := range metadata.Contributors {
		contributorRoles = append(contributorRoles, Contributor{Name: c.Name, Role: c.Role})
		contributorNames = append(contributorNames, c.Name)
	}

	var series *Series
	if metadata.Series != nil {
		series = &Series{
			ID:          metadata.Series.Title,
			Name:        metadata.Series.Title,
			Number:      strconv.FormatFloat(metadata.Series.Number, 'f', -1, 64),
			NumberFloat: metadata.Series.Number,
		}
	}

	var publicationDate *string
	if metadata.PublicationDate != nil {
		formatted := FormatMillis(*metadata.PublicationDate)
		publicationDate = &formatted
	}

	language := "eng"
	if metadata.Language != nil {
		language = *metadata.Language
	}

	return BookMetadata{
		CrossRevisionID:         bookID,
		RevisionID:              bookID,
		Publisher:               Publisher{Name: metadata.Publisher, Imprint: metadata.Publisher},
		PublicationDate:         publicationDate,
		Language:                metadata.Language,
		ISBN:                    metadata.ISBN,
		Subtitle:                metadata.Subtitle,
		CoverImageID:            coverImageID,
		IsSocialEnabled:         true,
		WorkID:                  bookID,
		ExternalIDs:             []string{},
		ContributorRoles:        contributorRoles,
		EntitlementID:           bookID,
		Title:                   metadata.Title,
		Description:             metadata.Description,
		Categories:              []string{},
		DownloadURLs:            []DownloadURL{downloadURL},
		Contributors:            contributorNames,
		Series:                  series,
		CurrentDisplayPrice:     DisplayPrice{TotalAmount: -1},
		CurrentLoveDisplayPrice: LovePrice{},
		Locale:                  Locale{LanguageCode: language},
	}
}

// TombstoneMetadata is the placeholder metadata block attached to a
// removed-book tombstone; the device ignores everything but the IDs.
func TombstoneMetadata(bookID string) BookMetadata {
	return TranslateMetadata(bookID, &backend.Metadata{}, NewDownloadURL("", 0), bookID)
}
