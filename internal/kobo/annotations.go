package kobo

import (
	"fmt"
	"strings"

	"github.com/tiago-cos/prosa-kobo/internal/backend"
)

// Annotation is the device-side shape of a highlight or note.
type Annotation struct {
	ClientLastModifiedUTC string             `json:"clientLastModifiedUtc"`
	ID                    string             `json:"id"`
	Location              AnnotationLocation `json:"location"`
	NoteText              *string            `json:"noteText,omitempty"`
	Type                  string             `json:"type"`
}

type AnnotationLocation struct {
	Span AnnotationSpan `json:"span"`
}

type AnnotationSpan struct {
	ChapterFilename string `json:"chapterFilename"`
	EndChar         int    `json:"endChar"`
	EndPath         string `json:"endPath"`
	StartChar       int    `json:"startChar"`
	StartPath       string `json:"startPath"`
}

// GetAnnotationsResponse is the payload of the annotation fetch endpoint.
type GetAnnotationsResponse struct {
	Annotations         []Annotation `json:"annotations"`
	NextPageOffsetToken *string      `json:"nextPageOffsetToken"`
}

// PatchAnnotationsRequest is the payload devices send to upload annotation
// changes.
type PatchAnnotationsRequest struct {
	UpdatedAnnotations   []Annotation `json:"updatedAnnotations"`
	DeletedAnnotationIDs []string     `json:"deletedAnnotationIds"`
}

// TranslateAnnotation maps a backend annotation onto the device shape. The
// device addresses spans with CSS-ish selectors, so tag dots are escaped
// and the end character is exclusive on the device side.
func TranslateAnnotation(a *backend.Annotation) Annotation {
	span := AnnotationSpan{
		ChapterFilename: a.Source,
		EndChar:         a.EndChar + 1,
		EndPath:         "span#" + strings.ReplaceAll(a.EndTag, ".", "\\."),
		StartChar:       a.StartChar,
		StartPath:       "span#" + strings.ReplaceAll(a.StartTag, ".", "\\."),
	}

	annotationType := "highlight"
	if a.Note != nil {
		annotationType = "note"
	}

	return Annotation{
		ClientLastModifiedUTC: NowString(),
		ID:                    a.AnnotationID,
		Location:              AnnotationLocation{Span: span},
		NoteText:              a.Note,
		Type:                  annotationType,
	}
}

// ToBackendAnnotation maps a device annotation onto the backend request
// shape, inverting the span-selector encoding.
func ToBackendAnnotation(a Annotation) (*backend.AnnotationRequest, error) {
	startTag, ok := strings.CutPrefix(a.Location.Span.StartPath, "span#")
	if !ok {
		return nil, fmt.Errorf("unexpected start path %q", a.Location.Span.StartPath)
	}
	endTag, ok := strings.CutPrefix(a.Location.Span.EndPath, "span#")
	if !ok {
		return nil, fmt.Errorf("unexpected end path %q", a.Location.Span.EndPath)
	}

	return &backend.AnnotationRequest{
		Source:    a.Location.Span.ChapterFilename,
		StartTag:  strings.ReplaceAll(startTag, "\\.", "."),
		EndTag:    strings.ReplaceAll(endTag, "\\.", "."),
		StartChar: a.Location.Span.StartChar,
		EndChar:   a.Location.Span.EndChar - 1,
		Note:      a.NoteText,
	}, nil
}
