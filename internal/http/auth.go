package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-kobo/internal/database/devices"
	"github.com/tiago-cos/prosa-kobo/internal/session"
)

// AuthController issues device session credentials.
type AuthController struct {
	authority *session.Authority
	devices   *devices.Repository
}

func NewAuthController(authority *session.Authority, repo *devices.Repository) *AuthController {
	return &AuthController{authority: authority, devices: repo}
}

type DeviceAuthRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	UserKey  string `json:"user_key" binding:"required"`
}

type DeviceAuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	UserKey      string `json:"user_key"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// DeviceAuth exchanges a raw device identifier and user key for a session
// credential pair. First contact also registers the device as unlinked so
// it shows up for the administrator; an already linked or unlinked device
// is left as is.
// POST /auth/device
func (ac *AuthController) DeviceAuth(c *gin.Context) {
	var body DeviceAuthRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "device_id and user_key are required")
		return
	}

	deviceID := devices.HashDeviceID(body.DeviceID, body.UserKey)

	if err := ac.devices.RecordUnlinked(deviceID); err != nil {
		respondError(c, err)
		return
	}

	access, refresh, err := ac.authority.IssuePair(deviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeviceAuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(ac.authority.AccessTTL().Seconds()),
		UserKey:      body.UserKey,
	})
}

// Refresh exchanges a refresh credential for a new pair. Linkage is not
// checked here: an unlinked device may keep a live session, it just cannot
// reach any protected resource.
// POST /auth/refresh
func (ac *AuthController) Refresh(c *gin.Context) {
	var body RefreshRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "refresh_token is required")
		return
	}

	deviceID, err := ac.authority.Verify(body.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	access, refresh, err := ac.authority.IssuePair(deviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(ac.authority.AccessTTL().Seconds()),
	})
}
