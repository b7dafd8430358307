// Package sync drives the per-device reconciliation cycle: it asks the
// backend what changed since the device's cursor and translates every
// change into the device protocol, minting the capability tokens and
// rotating the annotation tags the emitted items depend on.
package sync

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/tiago-cos/prosa-kobo/internal/backend"
	"github.com/tiago-cos/prosa-kobo/internal/database/annotations"
	"github.com/tiago-cos/prosa-kobo/internal/database/tokens"
	"github.com/tiago-cos/prosa-kobo/internal/kobo"
)

// Backend is the slice of the content service the orchestrator needs.
type Backend interface {
	SyncSince(ctx context.Context, since *int64, apiKey string) (*backend.SyncDelta, error)
	FetchState(ctx context.Context, bookID, apiKey string) (*backend.ReadingState, error)
	FetchMetadata(ctx context.Context, bookID, apiKey string) (*backend.Metadata, error)
	FetchFileMetadata(ctx context.Context, bookID, apiKey string) (*backend.FileMetadata, error)
	GetShelf(ctx context.Context, shelfID, apiKey string) (*backend.ShelfMetadata, error)
	ListShelfBooks(ctx context.Context, shelfID, apiKey string) ([]string, error)
}

// Config carries the token parameters sync-minted download URLs use.
type Config struct {
	BookTokenTTL  time.Duration
	CoverTokenTTL time.Duration
	TokenSize     int
}

// Orchestrator assembles the sync response for one device per call. It
// keeps no per-cycle state of its own; every cycle is recomputed from
// backend state.
type Orchestrator struct {
	backend Backend
	tokens  *tokens.Repository
	tags    *annotations.Repository
	cfg     Config
}

// NewOrchestrator creates a sync orchestrator.
func NewOrchestrator(b Backend, tokenRepo *tokens.Repository, tagRepo *annotations.Repository, cfg Config) *Orchestrator {
	return &Orchestrator{backend: b, tokens: tokenRepo, tags: tagRepo, cfg: cfg}
}

// ParseCursor decodes the opaque cursor a device presents. An empty or
// malformed cursor means "since the beginning".
func ParseCursor(raw string) *int64 {
	if raw == "" {
		return nil
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &millis
}

// NewCursor mints the cursor handed back after a cycle: current unix
// milliseconds, so successive cursors never decrease.
func NewCursor() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// Sync runs one reconciliation cycle and returns the ordered item list.
// Any backend failure aborts the whole cycle so the device never sees a
// half-applied delta; the device retries the full sync later.
func (o *Orchestrator) Sync(ctx context.Context, since *int64, apiKey, deviceID, serverURL string) ([]any, error) {
	delta, err := o.backend.SyncSince(ctx, since, apiKey)
	if err != nil {
		return nil, fmt.Errorf("fetch sync delta: %w", err)
	}

	items := make([]any, 0)

	// Any changed signal on a book forces a full re-translation of its
	// entitlement; the device protocol has no finer-grained update.
	for _, bookID := range dedupe(delta.Book.File, delta.Book.Cover, delta.Book.Metadata) {
		item, err := o.translateBook(ctx, bookID, apiKey, deviceID, serverURL)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	for _, bookID := range delta.Book.Deleted {
		items = append(items, kobo.NewEntitlementItem{
			NewEntitlement: kobo.NewEntitlement{
				BookEntitlement: kobo.NewBookEntitlement(bookID, true),
				ReadingState:    kobo.TombstoneReadingState(bookID),
				BookMetadata:    kobo.TombstoneMetadata(bookID),
			},
		})
	}

	// The only place annotation tags are ever rotated.
	for _, bookID := range delta.Book.Annotations {
		if err := o.tags.Rotate(bookID); err != nil {
			return nil, fmt.Errorf("rotate annotation tag for %s: %w", bookID, err)
		}
	}

	for _, shelfID := range dedupe(delta.Shelf.Metadata, delta.Shelf.Contents) {
		shelf, err := o.backend.GetShelf(ctx, shelfID, apiKey)
		if err != nil {
			return nil, fmt.Errorf("fetch shelf %s: %w", shelfID, err)
		}
		books, err := o.backend.ListShelfBooks(ctx, shelfID, apiKey)
		if err != nil {
			return nil, fmt.Errorf("list shelf %s books: %w", shelfID, err)
		}
		items = append(items, kobo.NewShelf(shelfID, shelf.Name, books))
	}

	for _, shelfID := range delta.Shelf.Deleted {
		items = append(items, kobo.DeletedShelf(shelfID))
	}

	return items, nil
}

// translateBook builds the full entitlement item for one changed book,
// minting a fresh book token and cover token so the download URLs in the
// response are immediately usable.
func (o *Orchestrator) translateBook(ctx context.Context, bookID, apiKey, deviceID, serverURL string) (kobo.NewEntitlementItem, error) {
	var item kobo.NewEntitlementItem

	state, err := o.backend.FetchState(ctx, bookID, apiKey)
	if err != nil {
		return item, fmt.Errorf("fetch state for %s: %w", bookID, err)
	}

	file, err := o.backend.FetchFileMetadata(ctx, bookID, apiKey)
	if err != nil {
		return item, fmt.Errorf("fetch file metadata for %s: %w", bookID, err)
	}

	metadata, err := o.backend.FetchMetadata(ctx, bookID, apiKey)
	if err != nil {
		// Books can exist without descriptive metadata; the entitlement
		// still has to go out.
		if !backend.IsNotFound(err) {
			return item, fmt.Errorf("fetch metadata for %s: %w", bookID, err)
		}
		metadata = &backend.Metadata{}
	}

	bookToken, err := o.tokens.Issue(tokens.BookResource(bookID), deviceID, o.cfg.BookTokenTTL, o.cfg.TokenSize)
	if err != nil {
		return item, fmt.Errorf("issue book token for %s: %w", bookID, err)
	}
	coverToken, err := o.tokens.Issue(tokens.CoverResource(bookID), deviceID, o.cfg.CoverTokenTTL, o.cfg.TokenSize)
	if err != nil {
		return item, fmt.Errorf("issue cover token for %s: %w", bookID, err)
	}

	downloadURL := kobo.NewDownloadURL(
		fmt.Sprintf("%s/books/%s?token=%s", serverURL, url.PathEscape(bookID), url.QueryEscape(bookToken)),
		file.FileSize,
	)
	coverImageID := fmt.Sprintf("%s?token=%s", bookID, url.QueryEscape(coverToken))

	return kobo.NewEntitlementItem{
		NewEntitlement: kobo.NewEntitlement{
			BookEntitlement: kobo.NewBookEntitlement(bookID, false),
			ReadingState:    kobo.TranslateReadingState(bookID, state),
			BookMetadata:    kobo.TranslateMetadata(bookID, metadata, downloadURL, coverImageID),
		},
	}, nil
}

// dedupe merges the given ID lists, dropping duplicates. Output order is
// sorted so a cycle's item list is deterministic.
func dedupe(lists ...[]string) []string {
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, id := range list {
			seen[id] = struct{}{}
		}
	}
	merged := make([]string, 0, len(seen))
	for id := range seen {
		merged = append(merged, id)
	}
	sort.Strings(merged)
	return merged
}
