package session

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-kobo/internal/database/devices"
)

// Context keys set by the middleware for downstream handlers.
const (
	ContextKeyDeviceID = "session_device_id"
	ContextKeyAPIKey   = "session_api_key"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrDeviceNotLinked   = errors.New("device not linked")
)

// Middleware authenticates device requests: it verifies the bearer
// credential and resolves the device to its API key. Linkage is checked
// here, at the edge of every protected operation, not baked into the
// credential, so an unlinked device can still refresh but cannot touch
// resources.
type Middleware struct {
	authority *Authority
	devices   *devices.Repository
	onError   func(*gin.Context, error)
}

// NewMiddleware creates a device-auth middleware. onError renders the
// failure; the transport layer owns the error-to-status mapping.
func NewMiddleware(authority *Authority, repo *devices.Repository, onError func(*gin.Context, error)) *Middleware {
	return &Middleware{authority: authority, devices: repo, onError: onError}
}

// RequireDevice verifies the credential and requires the device to be
// linked.
func (m *Middleware) RequireDevice() gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID, err := m.authenticate(c)
		if err != nil {
			m.onError(c, err)
			c.Abort()
			return
		}

		apiKey, err := m.devices.Resolve(deviceID)
		if err != nil {
			if errors.Is(err, devices.ErrDeviceNotFound) {
				err = ErrDeviceNotLinked
			}
			m.onError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextKeyDeviceID, deviceID)
		c.Set(ContextKeyAPIKey, apiKey)
		c.Next()
	}
}

func (m *Middleware) authenticate(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", ErrMissingCredential
	}
	credential, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrMalformedCredential
	}
	return m.authority.Verify(strings.TrimSpace(credential))
}

// DeviceID returns the authenticated device ID from the request context.
func DeviceID(c *gin.Context) string {
	return c.GetString(ContextKeyDeviceID)
}

// APIKey returns the resolved backend API key from the request context.
func APIKey(c *gin.Context) string {
	return c.GetString(ContextKeyAPIKey)
}
