package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-kobo/internal/session"
	syncsvc "github.com/tiago-cos/prosa-kobo/internal/sync"
)

// SyncTokenHeader carries the opaque cursor a device presents and receives
// on every sync cycle.
const SyncTokenHeader = "Sync-Token"

// SyncController handles the device library sync endpoint.
type SyncController struct {
	orchestrator *syncsvc.Orchestrator
	publicURL    string
}

func NewSyncController(orchestrator *syncsvc.Orchestrator, publicURL string) *SyncController {
	return &SyncController{orchestrator: orchestrator, publicURL: publicURL}
}

// Sync runs one reconciliation cycle for the calling device and hands back
// the next cursor in the Sync-Token response header.
// GET /library/sync
func (sc *SyncController) Sync(c *gin.Context) {
	since := syncsvc.ParseCursor(c.GetHeader(SyncTokenHeader))

	serverURL := sc.publicURL
	if serverURL == "" {
		serverURL = "http://" + c.Request.Host
	}

	items, err := sc.orchestrator.Sync(
		c.Request.Context(),
		since,
		session.APIKey(c),
		session.DeviceID(c),
		serverURL,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header(SyncTokenHeader, syncsvc.NewCursor())
	c.JSON(http.StatusOK, items)
}
