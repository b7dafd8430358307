package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-kobo/internal/backend"
	"github.com/tiago-cos/prosa-kobo/internal/database/annotations"
	"github.com/tiago-cos/prosa-kobo/internal/database/devices"
	"github.com/tiago-cos/prosa-kobo/internal/database/tokens"
	"github.com/tiago-cos/prosa-kobo/internal/session"
)

// BooksController serves token-gated book downloads and credentialed
// deletion.
type BooksController struct {
	backend *backend.Client
	tokens  *tokens.Repository
	devices *devices.Repository
	tags    *annotations.Repository
}

func NewBooksController(client *backend.Client, tokenRepo *tokens.Repository, deviceRepo *devices.Repository, tagRepo *annotations.Repository) *BooksController {
	return &BooksController{backend: client, tokens: tokenRepo, devices: deviceRepo, tags: tagRepo}
}

// redeemForAPIKey consumes a capability token and resolves its owner
// device to the API key used against the backend. The indirection lets a
// token outlive credential rotation on the issuing device; it dies with
// the linkage instead.
func redeemForAPIKey(tokenRepo *tokens.Repository, deviceRepo *devices.Repository, resourceID, token string) (string, error) {
	deviceID, err := tokenRepo.Redeem(resourceID, token)
	if err != nil {
		return "", err
	}
	apiKey, err := deviceRepo.Resolve(deviceID)
	if err != nil {
		return "", tokens.ErrInvalidToken
	}
	return apiKey, nil
}

// Download streams a book file to the holder of a live capability token.
// No device credential is required; the token is the whole authorization.
// GET /books/:id?token=…
func (bc *BooksController) Download(c *gin.Context) {
	bookID := c.Param("id")
	token := c.Query("token")
	if token == "" {
		respondError(c, tokens.ErrInvalidToken)
		return
	}

	apiKey, err := redeemForAPIKey(bc.tokens, bc.devices, tokens.BookResource(bookID), token)
	if err != nil {
		respondError(c, err)
		return
	}

	book, err := bc.backend.DownloadBook(c.Request.Context(), bookID, apiKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", book)
}

// Delete removes a book from the backend and drops its annotation tag.
// Deleting an already absent book succeeds.
// DELETE /library/:id
func (bc *BooksController) Delete(c *gin.Context) {
	bookID := c.Param("id")

	if err := bc.backend.DeleteBook(c.Request.Context(), bookID, session.APIKey(c)); err != nil {
		respondError(c, err)
		return
	}
	if err := bc.tags.Clear(bookID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
