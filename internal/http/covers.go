package http

import (
	"bytes"
	"log"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-kobo/internal/backend"
	"github.com/tiago-cos/prosa-kobo/internal/database/devices"
	"github.com/tiago-cos/prosa-kobo/internal/database/tokens"
)

// CoversController serves token-gated cover images.
type CoversController struct {
	backend *backend.Client
	tokens  *tokens.Repository
	devices *devices.Repository
}

func NewCoversController(client *backend.Client, tokenRepo *tokens.Repository, deviceRepo *devices.Repository) *CoversController {
	return &CoversController{backend: client, tokens: tokenRepo, devices: deviceRepo}
}

// Download streams a cover image to the holder of a live cover token.
// Devices request device-specific dimensions; when both width and height
// are given the cover is resized, falling back to the raw image if the
// bytes do not decode.
// GET /images/:id?token=…&width=…&height=…
func (cc *CoversController) Download(c *gin.Context) {
	bookID := c.Param("id")
	token := c.Query("token")
	if token == "" {
		respondError(c, tokens.ErrInvalidToken)
		return
	}

	apiKey, err := redeemForAPIKey(cc.tokens, cc.devices, tokens.CoverResource(bookID), token)
	if err != nil {
		respondError(c, err)
		return
	}

	cover, err := cc.backend.DownloadCover(c.Request.Context(), bookID, apiKey)
	if err != nil {
		respondError(c, err)
		return
	}

	width, werr := strconv.Atoi(c.Query("width"))
	height, herr := strconv.Atoi(c.Query("height"))
	if werr == nil && herr == nil && width > 0 && height > 0 {
		resized, err := resizeCover(cover, width, height)
		if err != nil {
			log.Printf("Failed to resize cover for %s: %v", bookID, err)
		} else {
			cover = resized
		}
	}

	c.Data(http.StatusOK, "image/jpeg", cover)
}

// resizeCover re-encodes the cover as a JPEG of exactly the requested
// dimensions.
func resizeCover(cover []byte, width, height int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(cover))
	if err != nil {
		return nil, err
	}

	resized := imaging.Resize(img, width, height, imaging.NearestNeighbor)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
