package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-kobo/internal/backend"
	"github.com/tiago-cos/prosa-kobo/internal/kobo"
	"github.com/tiago-cos/prosa-kobo/internal/session"
)

// StateController handles reading-state reads and pushes and book ratings.
type StateController struct {
	backend *backend.Client
}

func NewStateController(client *backend.Client) *StateController {
	return &StateController{backend: client}
}

// Get returns a book's reading state as the single-element list the device
// expects.
// GET /library/:id/state
func (sc *StateController) Get(c *gin.Context) {
	bookID := c.Param("id")

	state, err := sc.backend.FetchState(c.Request.Context(), bookID, session.APIKey(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, []kobo.ReadingState{kobo.TranslateReadingState(bookID, state)})
}

// Update pushes the device's reading progress to the backend. The device
// sends a list but only ever one entry per book.
// PUT /library/:id/state
func (sc *StateController) Update(c *gin.Context) {
	bookID := c.Param("id")

	var body kobo.UpdateStateRequest
	if err := c.ShouldBindJSON(&body); err != nil || len(body.ReadingStates) == 0 {
		respondBadRequest(c, "expected at least one reading state")
		return
	}

	state := kobo.ToBackendState(body.ReadingStates[0])
	if err := sc.backend.UpdateState(c.Request.Context(), bookID, state, session.APIKey(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, kobo.NewUpdateStateResponse(bookID))
}

// Rate sets a book's star rating.
// POST /products/:id/rating/:rating
func (sc *StateController) Rate(c *gin.Context) {
	bookID := c.Param("id")

	rating, err := strconv.Atoi(c.Param("rating"))
	if err != nil || rating < 0 || rating > 5 {
		respondBadRequest(c, "rating must be between 0 and 5")
		return
	}

	if err := sc.backend.UpdateRating(c.Request.Context(), bookID, rating, session.APIKey(c)); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
