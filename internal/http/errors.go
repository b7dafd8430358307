package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-kobo/internal/backend"
	"github.com/tiago-cos/prosa-kobo/internal/database/devices"
	"github.com/tiago-cos/prosa-kobo/internal/database/tokens"
	"github.com/tiago-cos/prosa-kobo/internal/session"
)

// ErrorResponse is the wire shape of every error this service emits.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// errMissingAPIKey is raised by the device-administration handlers when the
// api_key parameter is absent.
var errMissingAPIKey = errors.New("missing api key")

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// errorTable is the single, exhaustive mapping from domain errors to
// transport responses. Everything not listed here renders as a generic 500.
var errorTable = []errorMapping{
	{session.ErrExpiredCredential, http.StatusUnauthorized, "ExpiredToken", "Expired token"},
	{session.ErrInvalidSignature, http.StatusUnauthorized, "InvalidSignature", "Invalid signature"},
	{session.ErrMalformedCredential, http.StatusUnauthorized, "InvalidToken", "Invalid token"},
	{session.ErrMissingCredential, http.StatusUnauthorized, "MissingAuth", "No authentication was provided."},
	{session.ErrDeviceNotLinked, http.StatusForbidden, "NotLinked", "This device is not associated with an API key."},
	{devices.ErrDeviceNotFound, http.StatusNotFound, "DeviceNotFound", "The requested device was not found."},
	{devices.ErrDeviceAlreadyLinked, http.StatusConflict, "DeviceAlreadyLinked", "This device is already linked."},
	{devices.ErrInvalidAPIKey, http.StatusBadRequest, "InvalidApiKey", "The provided API key is invalid."},
	{errMissingAPIKey, http.StatusBadRequest, "MissingApiKey", "No API key was provided."},
	{tokens.ErrInvalidToken, http.StatusForbidden, "InvalidToken", "The provided token is invalid."},
}

// respondError renders err according to the error table. Backend status
// errors pass their client-relevant statuses through; anything unmapped is
// logged and collapsed into a generic 500 so no internals leak.
func respondError(c *gin.Context, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			c.JSON(m.status, ErrorResponse{ErrorCode: m.code, Message: m.message})
			return
		}
	}

	var se *backend.StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusBadRequest:
			c.JSON(se.Code, ErrorResponse{ErrorCode: "BadRequest", Message: "Bad client request."})
		case http.StatusUnauthorized:
			c.JSON(se.Code, ErrorResponse{ErrorCode: "Unauthorized", Message: "Unauthorized client request."})
		case http.StatusForbidden:
			c.JSON(se.Code, ErrorResponse{ErrorCode: "Forbidden", Message: "Forbidden client request."})
		case http.StatusNotFound:
			c.JSON(se.Code, ErrorResponse{ErrorCode: "NotFound", Message: "Client request not found."})
		case http.StatusConflict:
			c.JSON(se.Code, ErrorResponse{ErrorCode: "Conflict", Message: "Conflicting client request."})
		default:
			log.Printf("Backend error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{ErrorCode: "InternalError", Message: "Internal error"})
		}
		return
	}

	log.Printf("Internal error: %v", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{ErrorCode: "InternalError", Message: "Internal error"})
}

// respondBadRequest covers request-shape failures (unparsable bodies,
// missing parameters) that never reach a domain error.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{ErrorCode: "BadRequest", Message: message})
}
