package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-kobo/internal/database/devices"
)

// DevicesController handles administrative linkage management.
type DevicesController struct {
	devices *devices.Repository
}

func NewDevicesController(repo *devices.Repository) *DevicesController {
	return &DevicesController{devices: repo}
}

type LinkRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	APIKey   string `json:"api_key" binding:"required"`
}

// ListUnlinked returns the devices waiting to be linked.
// GET /devices/unlinked
func (dc *DevicesController) ListUnlinked(c *gin.Context) {
	unlinked, err := dc.devices.ListUnlinked()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, unlinked)
}

// ListLinked returns the device IDs linked to an API key.
// GET /devices/linked?api_key=…
func (dc *DevicesController) ListLinked(c *gin.Context) {
	apiKey := c.Query("api_key")
	if apiKey == "" {
		respondError(c, errMissingAPIKey)
		return
	}

	ids, err := dc.devices.ListLinked(apiKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ids)
}

// Link associates an unlinked device with an API key.
// POST /devices/link
func (dc *DevicesController) Link(c *gin.Context) {
	var body LinkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "device_id and api_key are required")
		return
	}

	if err := dc.devices.Link(body.DeviceID, body.APIKey); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Unlink dissolves an existing device/key association.
// POST /devices/unlink
func (dc *DevicesController) Unlink(c *gin.Context) {
	var body LinkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "device_id and api_key are required")
		return
	}

	if err := dc.devices.Unlink(body.DeviceID, body.APIKey); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
