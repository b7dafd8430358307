package http

import (
	"github.com/tiago-cos/prosa-kobo/internal/backend"
	"github.com/tiago-cos/prosa-kobo/internal/database"
	"github.com/tiago-cos/prosa-kobo/internal/database/annotations"
	"github.com/tiago-cos/prosa-kobo/internal/database/devices"
	"github.com/tiago-cos/prosa-kobo/internal/database/tokens"
	"github.com/tiago-cos/prosa-kobo/internal/session"
	syncsvc "github.com/tiago-cos/prosa-kobo/internal/sync"
)

// RouterConfig contains all dependencies and configuration needed to
// create the HTTP router.
type RouterConfig struct {
	Database *database.Database

	// Repositories
	Devices     *devices.Repository
	Tokens      *tokens.Repository
	Annotations *annotations.Repository

	// Session issuance and verification
	Authority *session.Authority

	// Content service
	Backend *backend.Client

	// Sync orchestration
	Orchestrator *syncsvc.Orchestrator

	// PublicURL overrides the request host in minted download links.
	PublicURL string

	Version string
}
