package sync

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tiago-cos/prosa-kobo/internal/backend"
	"github.com/tiago-cos/prosa-kobo/internal/database/annotations"
	"github.com/tiago-cos/prosa-kobo/internal/database/tokens"
	"github.com/tiago-cos/prosa-kobo/internal/entities"
	"github.com/tiago-cos/prosa-kobo/internal/kobo"
)

type fakeBackend struct {
	delta      *backend.SyncDelta
	states     map[string]*backend.ReadingState
	files      map[string]*backend.FileMetadata
	metadata   map[string]*backend.Metadata
	shelves    map[string]*backend.ShelfMetadata
	shelfBooks map[string][]string

	lastSince  *int64
	lastAPIKey string
	err        error
}

func (f *fakeBackend) SyncSince(_ context.Context, since *int64, apiKey string) (*backend.SyncDelta, error) {
	f.lastSince = since
	f.lastAPIKey = apiKey
	if f.err != nil {
		return nil, f.err
	}
	return f.delta, nil
}

func (f *fakeBackend) FetchState(_ context.Context, bookID, _ string) (*backend.ReadingState, error) {
	if state, ok := f.states[bookID]; ok {
		return state, nil
	}
	return &backend.ReadingState{Statistics: backend.Statistics{ReadingStatus: "Unread"}}, nil
}

func (f *fakeBackend) FetchMetadata(_ context.Context, bookID, _ string) (*backend.Metadata, error) {
	if metadata, ok := f.metadata[bookID]; ok {
		return metadata, nil
	}
	return nil, &backend.StatusError{Code: 404}
}

func (f *fakeBackend) FetchFileMetadata(_ context.Context, bookID, _ string) (*backend.FileMetadata, error) {
	if file, ok := f.files[bookID]; ok {
		return file, nil
	}
	return &backend.FileMetadata{}, nil
}

func (f *fakeBackend) GetShelf(_ context.Context, shelfID, _ string) (*backend.ShelfMetadata, error) {
	if shelf, ok := f.shelves[shelfID]; ok {
		return shelf, nil
	}
	return nil, &backend.StatusError{Code: 404}
}

func (f *fakeBackend) ListShelfBooks(_ context.Context, shelfID, _ string) ([]string, error) {
	return f.shelfBooks[shelfID], nil
}

func setupOrchestratorTest(t *testing.T, b Backend) (*Orchestrator, *tokens.Repository, *annotations.Repository, func()) {
	dbPath := "./test_sync_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.CapabilityToken{}, &entities.AnnotationTag{})
	require.NoError(t, err)

	tokenRepo := tokens.NewRepository(db)
	tagRepo := annotations.NewRepository(db)
	orchestrator := NewOrchestrator(b, tokenRepo, tagRepo, Config{
		BookTokenTTL:  time.Minute,
		CoverTokenTTL: time.Hour,
		TokenSize:     32,
	})

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return orchestrator, tokenRepo, tagRepo, cleanup
}

func TestOrchestrator_Sync_ChangedBook(t *testing.T) {
	title := "Dune"
	fake := &fakeBackend{
		delta: &backend.SyncDelta{Book: backend.BookDelta{
			File:        []string{"book-1"},
			Annotations: []string{"book-1"},
		}},
		states: map[string]*backend.ReadingState{
			"book-1": {Statistics: backend.Statistics{ReadingStatus: "Reading"}},
		},
		files: map[string]*backend.FileMetadata{
			"book-1": {FileSize: 2048},
		},
		metadata: map[string]*backend.Metadata{
			"book-1": {Title: &title},
		},
	}
	orchestrator, tokenRepo, tagRepo, cleanup := setupOrchestratorTest(t, fake)
	defer cleanup()

	tagBefore, err := tagRepo.GetTag("book-1")
	require.NoError(t, err)

	items, err := orchestrator.Sync(context.Background(), nil, "api-key", "device-a", "http://example.com")
	require.NoError(t, err)
	require.Len(t, items, 1)

	item, ok := items[0].(kobo.NewEntitlementItem)
	require.True(t, ok)

	entitlement := item.NewEntitlement
	assert.Equal(t, "book-1", entitlement.BookEntitlement.ID)
	assert.False(t, entitlement.BookEntitlement.IsRemoved)
	assert.Equal(t, "Reading", entitlement.ReadingState.StatusInfo.Status)
	require.NotNil(t, entitlement.BookMetadata.Title)
	assert.Equal(t, "Dune", *entitlement.BookMetadata.Title)

	require.Len(t, entitlement.BookMetadata.DownloadURLs, 1)
	download := entitlement.BookMetadata.DownloadURLs[0]
	assert.Equal(t, int64(2048), download.Size)
	assert.Contains(t, download.URL, "http://example.com/books/book-1?token=")

	// Both embedded tokens redeem against their own resource.
	bookToken := download.URL[len("http://example.com/books/book-1?token="):]
	owner, err := tokenRepo.Redeem(tokens.BookResource("book-1"), bookToken)
	require.NoError(t, err)
	assert.Equal(t, "device-a", owner)

	coverToken := entitlement.BookMetadata.CoverImageID[len("book-1?token="):]
	assert.NotEqual(t, bookToken, coverToken)
	owner, err = tokenRepo.Redeem(tokens.CoverResource("book-1"), coverToken)
	require.NoError(t, err)
	assert.Equal(t, "device-a", owner)

	// The annotation change signal rotated the tag during the same cycle.
	tagAfter, err := tagRepo.GetTag("book-1")
	require.NoError(t, err)
	assert.NotEqual(t, tagBefore, tagAfter)
}

func TestOrchestrator_Sync_DedupesBookSignals(t *testing.T) {
	fake := &fakeBackend{
		delta: &backend.SyncDelta{Book: backend.BookDelta{
			File:     []string{"book-1"},
			Cover:    []string{"book-1", "book-2"},
			Metadata: []string{"book-1"},
		}},
	}
	orchestrator, _, _, cleanup := setupOrchestratorTest(t, fake)
	defer cleanup()

	items, err := orchestrator.Sync(context.Background(), nil, "api-key", "device-a", "http://example.com")
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0].(kobo.NewEntitlementItem)
	second := items[1].(kobo.NewEntitlementItem)
	assert.Equal(t, "book-1", first.NewEntitlement.BookEntitlement.ID)
	assert.Equal(t, "book-2", second.NewEntitlement.BookEntitlement.ID)
}

func TestOrchestrator_Sync_MissingMetadata(t *testing.T) {
	// No metadata entry for book-1 makes the fake return 404; the
	// entitlement still has to go out.
	fake := &fakeBackend{
		delta: &backend.SyncDelta{Book: backend.BookDelta{File: []string{"book-1"}}},
	}
	orchestrator, _, _, cleanup := setupOrchestratorTest(t, fake)
	defer cleanup()

	items, err := orchestrator.Sync(context.Background(), nil, "api-key", "device-a", "http://example.com")
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0].(kobo.NewEntitlementItem)
	assert.Nil(t, item.NewEntitlement.BookMetadata.Title)
	assert.Equal(t, "book-1", item.NewEntitlement.BookMetadata.EntitlementID)
}

func TestOrchestrator_Sync_DeletedBook(t *testing.T) {
	fake := &fakeBackend{
		delta: &backend.SyncDelta{Book: backend.BookDelta{Deleted: []string{"book-1"}}},
	}
	orchestrator, tokenRepo, _, cleanup := setupOrchestratorTest(t, fake)
	defer cleanup()

	items, err := orchestrator.Sync(context.Background(), nil, "api-key", "device-a", "http://example.com")
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0].(kobo.NewEntitlementItem)
	assert.True(t, item.NewEntitlement.BookEntitlement.IsRemoved)
	assert.True(t, item.NewEntitlement.BookEntitlement.IsHiddenFromArchive)
	assert.Equal(t, "Unread", item.NewEntitlement.ReadingState.StatusInfo.Status)

	// Tombstones carry no live download tokens.
	removed, err := tokenRepo.DeleteExpired()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestOrchestrator_Sync_RotatesAnnotationTags(t *testing.T) {
	fake := &fakeBackend{
		delta: &backend.SyncDelta{Book: backend.BookDelta{Annotations: []string{"book-1"}}},
	}
	orchestrator, _, tagRepo, cleanup := setupOrchestratorTest(t, fake)
	defer cleanup()

	before, err := tagRepo.GetTag("book-1")
	require.NoError(t, err)

	items, err := orchestrator.Sync(context.Background(), nil, "api-key", "device-a", "http://example.com")
	require.NoError(t, err)
	assert.Empty(t, items)

	after, err := tagRepo.GetTag("book-1")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestOrchestrator_Sync_Shelves(t *testing.T) {
	fake := &fakeBackend{
		delta: &backend.SyncDelta{Shelf: backend.ShelfDelta{
			Metadata: []string{"shelf-1"},
			Contents: []string{"shelf-1"},
			Deleted:  []string{"shelf-2"},
		}},
		shelves: map[string]*backend.ShelfMetadata{
			"shelf-1": {Name: "Sci-Fi"},
		},
		shelfBooks: map[string][]string{
			"shelf-1": {"book-1", "book-2"},
		},
	}
	orchestrator, _, _, cleanup := setupOrchestratorTest(t, fake)
	defer cleanup()

	items, err := orchestrator.Sync(context.Background(), nil, "api-key", "device-a", "http://example.com")
	require.NoError(t, err)
	require.Len(t, items, 2)

	shelf, ok := items[0].(kobo.NewShelfItem)
	require.True(t, ok)
	assert.Equal(t, "shelf-1", shelf.NewTag.Tag.ID)
	require.NotNil(t, shelf.NewTag.Tag.Name)
	assert.Equal(t, "Sci-Fi", *shelf.NewTag.Tag.Name)
	require.Len(t, shelf.NewTag.Tag.Items, 2)

	deleted, ok := items[1].(kobo.DeletedShelfItem)
	require.True(t, ok)
	assert.Equal(t, "shelf-2", deleted.DeletedTag.Tag.ID)
}

func TestOrchestrator_Sync_BackendFailureAborts(t *testing.T) {
	fake := &fakeBackend{err: errors.New("backend down")}
	orchestrator, _, _, cleanup := setupOrchestratorTest(t, fake)
	defer cleanup()

	_, err := orchestrator.Sync(context.Background(), nil, "api-key", "device-a", "http://example.com")
	assert.Error(t, err)
}

func TestOrchestrator_Sync_PropagatesCursor(t *testing.T) {
	fake := &fakeBackend{delta: &backend.SyncDelta{}}
	orchestrator, _, _, cleanup := setupOrchestratorTest(t, fake)
	defer cleanup()

	since := int64(1700000000000)
	_, err := orchestrator.Sync(context.Background(), &since, "api-key", "device-a", "http://example.com")
	require.NoError(t, err)

	require.NotNil(t, fake.lastSince)
	assert.Equal(t, since, *fake.lastSince)
	assert.Equal(t, "api-key", fake.lastAPIKey)
}

func TestParseCursor(t *testing.T) {
	assert.Nil(t, ParseCursor(""))
	assert.Nil(t, ParseCursor("not-a-number"))

	cursor := ParseCursor("1700000000000")
	require.NotNil(t, cursor)
	assert.Equal(t, int64(1700000000000), *cursor)
}

func TestNewCursor_NonDecreasing(t *testing.T) {
	first, err := strconv.ParseInt(NewCursor(), 10, 64)
	require.NoError(t, err)
	second, err := strconv.ParseInt(NewCursor(), 10, 64)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, second, first)
}
