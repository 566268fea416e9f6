/**
 * @description
 * This package provides a client for communicating with the member directory
 * service. It encapsulates the logic for looking up a member's contact email
 * by member identifier.
 *
 * The client exposes a typed response contract: a missing member surfaces as
 * ErrMemberNotFound and a member record without an email as ErrContactMissing,
 * rather than silently defaulting to an empty string.
 */
package directoryclient

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
	// ErrMemberNotFound is returned when the directory has no record for the member id.
	ErrMemberNotFound = errors.New("member not found in directory")
	// ErrContactMissing is returned when the member record carries no email address.
	ErrContactMissing = errors.New("member record has no contact email")
)

// Client is a client for the member directory service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new directory service client. The timeout bounds every
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

// Member is the typed directory response consumed by the orchestrator.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// GetMember fetches the directory record for a member id.
func (c *Client) GetMember(ctx context.Context, memberID string) (*Member, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("directory service base url is empty")
	}

	url := fmt.Sprintf("%s/members/%s", c.baseURL, memberID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request to directory service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrMemberNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("directory service returned error status %d", resp.StatusCode)
	}

	var member Member
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}
	if strings.TrimSpace(member.Email) == "" {
		return nil, ErrContactMissing
	}

	return &member, nil
}
