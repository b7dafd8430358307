package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-kobo/internal/backend"
	"github.com/tiago-cos/prosa-kobo/internal/database/annotations"
	"github.com/tiago-cos/prosa-kobo/internal/kobo"
	"github.com/tiago-cos/prosa-kobo/internal/session"
)

// AnnotationsController handles the annotation sub-protocol: change
// detection by tag, full fetch, and uploading device-side edits.
type AnnotationsController struct {
	backend *backend.Client
	tags    *annotations.Repository
}

func NewAnnotationsController(client *backend.Client, tags *annotations.Repository) *AnnotationsController {
	return &AnnotationsController{backend: client, tags: tags}
}

// CheckForChanges returns the IDs whose annotations changed since the
// device last saw them, judged purely by tag comparison.
// GET /content/checkforchanges
func (ac *AnnotationsController) CheckForChanges(c *gin.Context) {
	var checks []annotations.ChangeCheck
	if err := c.ShouldBindJSON(&checks); err != nil {
		respondBadRequest(c, "expected a list of {ContentId, Etag} entries")
		return
	}

	changed, err := ac.tags.Changed(checks)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, changed)
}

// Get returns all annotations of a book and the current tag in the ETag
// header, establishing the baseline tag on first access.
// GET /content/:id/annotations
func (ac *AnnotationsController) Get(c *gin.Context) {
	bookID := c.Param("id")
	apiKey := session.APIKey(c)
	ctx := c.Request.Context()

	ids, err := ac.backend.ListAnnotations(ctx, bookID, apiKey)
	if err != nil {
		respondError(c, err)
		return
	}

	translated := make([]kobo.Annotation, 0, len(ids))
	for _, id := range ids {
		annotation, err := ac.backend.GetAnnotation(ctx, bookID, id, apiKey)
		if err != nil {
			respondError(c, err)
			return
		}
		translated = append(translated, kobo.TranslateAnnotation(annotation))
	}

	tag, err := ac.tags.GetTag(bookID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("ETag", tag)
	c.JSON(http.StatusOK, kobo.GetAnnotationsResponse{Annotations: translated})
}

// Patch applies device-side annotation edits to the backend. An upload
// that conflicts with an existing annotation falls back to patching the
// note by ID; deletions follow.
// PATCH /content/:id/annotations
func (ac *AnnotationsController) Patch(c *gin.Context) {
	bookID := c.Param("id")
	apiKey := session.APIKey(c)
	ctx := c.Request.Context()

	var body kobo.PatchAnnotationsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "malformed annotation patch")
		return
	}

	for _, annotation := range body.UpdatedAnnotations {
		request, err := kobo.ToBackendAnnotation(annotation)
		if err != nil {
			respondBadRequest(c, "malformed annotation span")
			return
		}

		err = ac.backend.AddAnnotation(ctx, bookID, request, apiKey)
		if errors.Is(err, backend.ErrConflict) {
			note := ""
			if annotation.NoteText != nil {
				note = *annotation.NoteText
			}
			err = ac.backend.PatchAnnotation(ctx, bookID, annotation.ID, note, apiKey)
		}
		if err != nil {
			respondError(c, err)
			return
		}
	}

	for _, annotationID := range body.DeletedAnnotationIDs {
		if err := ac.backend.DeleteAnnotation(ctx, bookID, annotationID, apiKey); err != nil {
			respondError(c, err)
			return
		}
	}

	c.Status(http.StatusNoContent)
}
