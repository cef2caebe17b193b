// services/identity_client.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
}

// IdentityUser is one user as returned by the provider's admin listing.
type IdentityUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listUsersResponse struct {
	Users []IdentityUser `json:"users"`
}

// IdentityClient talks to the hosted auth provider with the service role key.
type IdentityClient struct {
	BaseURL    string
	ServiceKey string
	Client     *http.Client
}

func NewIdentityClient(baseURL, serviceKey string) *IdentityClient {
	return &IdentityClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Resolve exchanges a bearer token for the caller's identity. Any rejection by
// the provider is ErrUnauthorized; transport failures are returned as is.
func (c *IdentityClient) Resolve(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", c.ServiceKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		logrus.WithField("component", "identity").Warnf("/auth/v1/user returned %d: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("identity lookup failed: %d", resp.StatusCode)
	}

	var u IdentityUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, ErrUnauthorized
	}
	return &Identity{UserID: u.ID, Email: u.Email}, nil
}

// ListUsers returns one page of the admin user listing (pages start at 1).
func (c *IdentityClient) ListUsers(ctx context.Context, page, perPage int) ([]IdentityUser, error) {
	endpoint, err := url.Parse(c.BaseURL + "/auth/v1/admin/users")
	if err != nil {
		return nil, fmt.Errorf("invalid identity provider URL %q: %w", c.BaseURL, err)
	}
	q := endpoint.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	req.Header.Set("apikey", c.ServiceKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list users request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("list users returned %d: %s", resp.StatusCode, string(body))
	}

	var out listUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode user listing: %w", err)
	}
	return out.Users, nil
}
