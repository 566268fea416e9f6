/**
 * @description
 * This package provides a client for communicating with the book catalog
 * service. It encapsulates the logic for looking up a book's display title and
 * availability by its identifier.
 *
 * The client exposes a typed response contract: a missing book surfaces as
 * ErrBookNotFound rather than an empty payload, so callers can tell "book does
 * not exist" apart from "catalog unreachable".
 */
package catalogclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrBookNotFound is returned when the catalog has no record for the book id.
	ErrBookNotFound = errors.New("book not found in catalog")
	// ErrTitleMissing is returned when the catalog record carries no title.
	ErrTitleMissing = errors.New("catalog record has no title")
)

// Client is a client for the catalog service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new catalog service client. The timeout bounds every
// lookup; a zero timeout falls back to 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Book is the typed catalog response consumed by the orchestrator.
type Book struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	Available bool   `json:"available"`
}

// GetBook fetches the catalog record for a book id.
func (c *Client) GetBook(ctx context.Context, bookID string) (*Book, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("catalog service base url is empty")
	}

	url := fmt.Sprintf("%s/books/%s", c.baseURL, bookID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request to catalog service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrBookNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("catalog service returned error status %d", resp.StatusCode)
	}

	var book Book
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	if strings.TrimSpace(book.Title) == "" {
		return nil, ErrTitleMissing
	}

	return &book, nil
}
