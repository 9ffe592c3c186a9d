package plex

import (
	"context"
	"errors"
	"net/http"

	"github.com/plextool/plextool/internal/shared"
)

// Identity fetches the server identity block from the API root. Cheap, so
// also the probe of choice for connectivity and token validity.
func (c *Client) Identity(ctx context.Context) (*Identity, error) {
	var resp identityResponse
	if err := c.do(ctx, http.MethodGet, "/", &resp); err != nil {
		return nil, err
	}
	return &resp.MediaContainer, nil
}

// CheckForUpdate asks the updater to poll for a new server release and
// returns it, or nil when the server is current. The status endpoint 404s
// on servers that have never checked, which also means no update.
func (c *Client) CheckForUpdate(ctx context.Context) (*Release, error) {
	if err := c.do(ctx, http.MethodPut, "/updater/check?download=0", nil); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	var resp updaterResponse
	if err := c.do(ctx, http.MethodGet, "/updater/status", &resp); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.MediaContainer.Release) == 0 {
		return nil, nil
	}
	return &resp.MediaContainer.Release[0], nil
}

// Sessions lists active playback sessions.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var resp sessionsResponse
	if err := c.do(ctx, http.MethodGet, "/status/sessions", &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Metadata, nil
}
