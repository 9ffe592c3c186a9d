package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/plextool/plextool/internal/shared"
)

// Playlists lists every playlist on the server, sorted by title.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	var resp playlistsResponse
	if err := c.do(ctx, http.MethodGet, "/playlists", &resp); err != nil {
		return nil, err
	}
	playlists := resp.MediaContainer.Metadata
	sort.Slice(playlists, func(i, j int) bool {
		return strings.ToLower(playlists[i].Title) < strings.ToLower(playlists[j].Title)
	})
	return playlists, nil
}

// Playlist fetches a single playlist. The list endpoint leaves the content
// URI out on some server versions, this one always carries it.
func (c *Client) Playlist(ctx context.Context, ratingKey string) (*Playlist, error) {
	var resp playlistsResponse
	if err := c.do(ctx, http.MethodGet, "/playlists/"+ratingKey, &resp); err != nil {
		return nil, err
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, ratingKey)
	}
	return &resp.MediaContainer.Metadata[0], nil
}

// PlaylistItems lists the tracks a playlist resolves to.
func (c *Client) PlaylistItems(ctx context.Context, ratingKey string) ([]Track, error) {
	var resp tracksResponse
	if err := c.do(ctx, http.MethodGet, "/playlists/"+ratingKey+"/items", &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Metadata, nil
}

// PlaylistFilter fetches a playlist and parses its filter expression.
// Non-smart playlists are rejected.
func (c *Client) PlaylistFilter(ctx context.Context, ratingKey string) (*SmartFilter, error) {
	playlist, err := c.Playlist(ctx, ratingKey)
	if err != nil {
		return nil, err
	}
	if !playlist.Smart || playlist.Content == "" {
		return nil, fmt.Errorf("%w: playlist %q is not a smart playlist", shared.ErrInvalidFlag, playlist.Title)
	}
	return ParseContent(playlist.Content)
}

// UpdatePlaylistFilter replaces a smart playlist's filter expression.
func (c *Client) UpdatePlaylistFilter(ctx context.Context, ratingKey string, filter *SmartFilter) error {
	endpoint := fmt.Sprintf("/playlists/%s/items?uri=%s", ratingKey, url.QueryEscape(filter.Encode()))
	return c.do(ctx, http.MethodPut, endpoint, nil)
}

// SelectPlaylists picks playlists by name. An exact title match wins,
// otherwise the pattern is treated as a regular expression. Returns
// [shared.ErrNoMatch] when nothing fits.
func SelectPlaylists(playlists []Playlist, pattern string) ([]Playlist, error) {
	var exact []Playlist
	for _, p := range playlists {
		if strings.EqualFold(p.Title, pattern) {
			exact = append(exact, p)
		}
	}
	if len(exact) > 0 {
		return exact, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: playlist pattern %q: %v", shared.ErrInvalidFlag, pattern, err)
	}
	var matched []Playlist
	for _, p := range playlists {
		if re.MatchString(p.Title) {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: no playlist matches %q", shared.ErrNoMatch, pattern)
	}
	return matched, nil
}
