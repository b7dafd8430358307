package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second)
}

func TestClient_SyncSince(t *testing.T) {
	var gotPath, gotQuery, gotAPIKey string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("api-key")
		json.NewEncoder(w).Encode(SyncDelta{
			Book: BookDelta{File: []string{"book-1"}, Deleted: []string{"book-2"}},
		})
	})

	since := int64(1700000000000)
	delta, err := client.SyncSince(context.Background(), &since, "test-key")
	require.NoError(t, err)

	assert.Equal(t, "/sync", gotPath)
	assert.Equal(t, "since=1700000000000", gotQuery)
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, []string{"book-1"}, delta.Book.File)
	assert.Equal(t, []string{"book-2"}, delta.Book.Deleted)
}

func TestClient_SyncSince_NoCursor(t *testing.T) {
	var gotQuery string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(SyncDelta{})
	})

	_, err := client.SyncSince(context.Background(), nil, "test-key")
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
}

func TestClient_FetchState_BackendVocabularyUntouched(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ReadingState{
			Statistics: Statistics{ReadingStatus: "Read"},
		})
	})

	state, err := client.FetchState(context.Background(), "book-1", "test-key")
	require.NoError(t, err)
	assert.Equal(t, "Read", state.Statistics.ReadingStatus)
}

func TestClient_FetchMetadata_NotFound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchMetadata(context.Background(), "book-1", "test-key")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestClient_DownloadBook(t *testing.T) {
	var gotPath string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("book bytes"))
	})

	data, err := client.DownloadBook(context.Background(), "book-1", "test-key")
	require.NoError(t, err)
	assert.Equal(t, "/books/book-1", gotPath)
	assert.Equal(t, []byte("book bytes"), data)
}

func TestClient_DownloadBook_AtSizeBound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, maxBookSize))
	})

	data, err := client.DownloadBook(context.Background(), "book-1", "test-key")
	require.NoError(t, err)
	assert.Len(t, data, maxBookSize)
}

func TestClient_DownloadBook_OverSizeBound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, maxBookSize+1024))
	})

	// An oversized body must fail outright, never come back truncated.
	_, err := client.DownloadBook(context.Background(), "book-1", "test-key")
	assert.Error(t, err)
}

func TestClient_DeleteBook_NotFoundIsSuccess(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.DeleteBook(context.Background(), "book-1", "test-key")
	assert.NoError(t, err)
}

func TestClient_DeleteBook_OtherErrors(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := client.DeleteBook(context.Background(), "book-1", "test-key")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
}

func TestClient_AddAnnotation_Conflict(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	err := client.AddAnnotation(context.Background(), "book-1", &AnnotationRequest{}, "test-key")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestClient_UpdateState(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody ReadingState
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
	})

	state := &ReadingState{Statistics: Statistics{ReadingStatus: "Reading"}}
	err := client.UpdateState(context.Background(), "book-1", state, "test-key")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Reading", gotBody.Statistics.ReadingStatus)
}

func TestClient_GetShelf(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ShelfMetadata{Name: "Sci-Fi", BookCount: 2})
	})

	shelf, err := client.GetShelf(context.Background(), "shelf-1", "test-key")
	require.NoError(t, err)
	assert.Equal(t, "Sci-Fi", shelf.Name)
	assert.Equal(t, int64(2), shelf.BookCount)
}
