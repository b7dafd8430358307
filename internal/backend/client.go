// Package backend is the HTTP client for the Prosa content service, the
// authoritative store of books, metadata, reading state, annotations and
// shelves. Every call authenticates with the api-key header of the device's
// linked key; the backend decides whether the key is honored.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// maxBookSize bounds a book download read. A response past the bound is an
// error, never a truncated payload.
const maxBookSize = 50 << 20

// Client talks to the Prosa content service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a backend client for the given base URL, e.g.
// "http://127.0.0.1:5000".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

func (c *Client) do(ctx context.Context, method, path, apiKey string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("api-key", apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) download(ctx context.Context, path, apiKey string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBookSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxBookSize {
		return nil, fmt.Errorf("response larger than %d bytes", maxBookSize)
	}
	return data, nil
}

// SyncSince asks the backend what changed since the given cursor. A nil
// cursor means "since the beginning".
func (c *Client) SyncSince(ctx context.Context, since *int64, apiKey string) (*SyncDelta, error) {
	path := "/sync"
	if since != nil {
		path += "?since=" + strconv.FormatInt(*since, 10)
	}
	var delta SyncDelta
	if err := c.do(ctx, http.MethodGet, path, apiKey, nil, &delta); err != nil {
		return nil, err
	}
	return &delta, nil
}

// FetchMetadata retrieves a book's descriptive metadata.
func (c *Client) FetchMetadata(ctx context.Context, bookID, apiKey string) (*Metadata, error) {
	var metadata Metadata
	err := c.do(ctx, http.MethodGet, "/books/"+url.PathEscape(bookID)+"/metadata", apiKey, nil, &metadata)
	if err != nil {
		return nil, err
	}
	return &metadata, nil
}

// FetchFileMetadata retrieves owner and size of a book's file.
func (c *Client) FetchFileMetadata(ctx context.Context, bookID, apiKey string) (*FileMetadata, error) {
	var fm FileMetadata
	err := c.do(ctx, http.MethodGet, "/books/"+url.PathEscape(bookID)+"/file-metadata", apiKey, nil, &fm)
	if err != nil {
		return nil, err
	}
	return &fm, nil
}

// FetchState retrieves a book's reading state, in the backend's status
// vocabulary. Translation to device terms is the kobo package's job.
func (c *Client) FetchState(ctx context.Context, bookID, apiKey string) (*ReadingState, error) {
	var state ReadingState
	err := c.do(ctx, http.MethodGet, "/books/"+url.PathEscape(bookID)+"/state", apiKey, nil, &state)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// UpdateState pushes a device's reading state back to the backend.
func (c *Client) UpdateState(ctx context.Context, bookID string, state *ReadingState, apiKey string) error {
	return c.do(ctx, http.MethodPut, "/books/"+url.PathEscape(bookID)+"/state", apiKey, state, nil)
}

// UpdateRating sets a book's rating.
func (c *Client) UpdateRating(ctx context.Context, bookID string, rating int, apiKey string) error {
	payload := map[string]int{"rating": rating}
	return c.do(ctx, http.MethodPut, "/books/"+url.PathEscape(bookID)+"/rating", apiKey, payload, nil)
}

// DownloadBook retrieves a book file.
func (c *Client) DownloadBook(ctx context.Context, bookID, apiKey string) ([]byte, error) {
	return c.download(ctx, "/books/"+url.PathEscape(bookID), apiKey)
}

// DeleteBook removes a book. A 404 means the book is already gone, which
// is the outcome the caller wanted, so it is treated as success.
func (c *Client) DeleteBook(ctx context.Context, bookID, apiKey string) error {
	err := c.do(ctx, http.MethodDelete, "/books/"+url.PathEscape(bookID), apiKey, nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}

// DownloadCover retrieves a book's cover image.
func (c *Client) DownloadCover(ctx context.Context, bookID, apiKey string) ([]byte, error) {
	return c.download(ctx, "/books/"+url.PathEscape(bookID)+"/cover", apiKey)
}

// ListAnnotations returns the IDs of a book's annotations.
func (c *Client) ListAnnotations(ctx context.Context, bookID, apiKey string) ([]string, error) {
	var ids []string
	err := c.do(ctx, http.MethodGet, "/books/"+url.PathEscape(bookID)+"/annotations", apiKey, nil, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetAnnotation retrieves one annotation.
func (c *Client) GetAnnotation(ctx context.Context, bookID, annotationID, apiKey string) (*Annotation, error) {
	var annotation Annotation
	path := "/books/" + url.PathEscape(bookID) + "/annotations/" + url.PathEscape(annotationID)
	if err := c.do(ctx, http.MethodGet, path, apiKey, nil, &annotation); err != nil {
		return nil, err
	}
	return &annotation, nil
}

// AddAnnotation creates an annotation and returns its backend ID. Returns
// an error matching ErrConflict when the annotation already exists.
func (c *Client) AddAnnotation(ctx context.Context, bookID string, annotation *AnnotationRequest, apiKey string) error {
	return c.do(ctx, http.MethodPost, "/books/"+url.PathEscape(bookID)+"/annotations", apiKey, annotation, nil)
}

// PatchAnnotation updates an existing annotation's note.
func (c *Client) PatchAnnotation(ctx context.Context, bookID, annotationID, note, apiKey string) error {
	payload := map[string]string{"note": note}
	path := "/books/" + url.PathEscape(bookID) + "/annotations/" + url.PathEscape(annotationID)
	return c.do(ctx, http.MethodPatch, path, apiKey, payload, nil)
}

// DeleteAnnotation removes an annotation.
func (c *Client) DeleteAnnotation(ctx context.Context, bookID, annotationID, apiKey string) error {
	path := "/books/" + url.PathEscape(bookID) + "/annotations/" + url.PathEscape(annotationID)
	return c.do(ctx, http.MethodDelete, path, apiKey, nil, nil)
}

// GetShelf retrieves a shelf's metadata.
func (c *Client) GetShelf(ctx context.Context, shelfID, apiKey string) (*ShelfMetadata, error) {
	var shelf ShelfMetadata
	err := c.do(ctx, http.MethodGet, "/shelves/"+url.PathEscape(shelfID), apiKey, nil, &shelf)
	if err != nil {
		return nil, err
	}
	return &shelf, nil
}

// ListShelfBooks returns the book IDs a shelf contains.
func (c *Client) ListShelfBooks(ctx context.Context, shelfID, apiKey string) ([]string, error) {
	var ids []string
	err := c.do(ctx, http.MethodGet, "/shelves/"+url.PathEscape(shelfID)+"/books", apiKey, nil, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
