// Package github is a minimal GitHub API client used to verify handles
// claimed at registration.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// ErrUserNotFound reports that the requested handle has no GitHub account,
// as opposed to GitHub itself being unreachable.
var ErrUserNotFound = errors.New("github user does not exist")

// User is the subset of a GitHub profile the marketplace cares about.
type User struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	HTMLURL     string `json:"html_url"`
	PublicRepos int    `json:"public_repos"`
}

// Client talks to the GitHub REST API anonymously.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client. A nil httpClient gets a bounded-timeout default.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, client: httpClient}
}

// GetUser fetches a public profile by handle.
func (c *Client) GetUser(ctx context.Context, handle string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/"+handle, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get github user %s: %w", handle, err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", handle, ErrUserNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get github user %s: status %d", handle, resp.StatusCode)
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode github user: %w", err)
	}
	return &u, nil
}
