package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/plextool/plextool/internal/shared"
)

// Sections lists the server's libraries.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	var resp sectionsResponse
	if err := c.do(ctx, http.MethodGet, "/library/sections", &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Directory, nil
}

// SectionByID looks a library up by its numeric id.
func (c *Client) SectionByID(ctx context.Context, id int) (*Section, error) {
	sections, err := c.Sections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if sections[i].Key == strconv.Itoa(id) {
			return &sections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: library section %d", shared.ErrNotFound, id)
}

// SectionByTitle looks a library up by name, case-insensitively.
func (c *Client) SectionByTitle(ctx context.Context, title string) (*Section, error) {
	sections, err := c.Sections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if strings.EqualFold(sections[i].Title, title) {
			return &sections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: library section %q", shared.ErrNotFound, title)
}

// SectionMoods lists the track moods known to a music library. The fast key
// of each choice carries the tag id used in filter expressions.
func (c *Client) SectionMoods(ctx context.Context, sectionKey string) ([]FilterChoice, error) {
	endpoint := fmt.Sprintf("/library/sections/%s/mood?type=10", sectionKey)
	var resp filterChoicesResponse
	if err := c.do(ctx, http.MethodGet, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Directory, nil
}

// MoodID resolves a mood name to its tag id, or ok=false when the library
// has no such mood yet.
func (c *Client) MoodID(ctx context.Context, sectionKey, mood string) (string, bool, error) {
	choices, err := c.SectionMoods(ctx, sectionKey)
	if err != nil {
		return "", false, err
	}
	for _, choice := range choices {
		if strings.EqualFold(choice.Title, mood) {
			return choice.TagID(), true, nil
		}
	}
	return "", false, nil
}

// MoodAutocomplete asks the server for mood tags matching a prefix. Unlike
// [Client.SectionMoods] this also surfaces moods not yet used by any track.
func (c *Client) MoodAutocomplete(ctx context.Context, sectionKey, query string) ([]Tag, error) {
	endpoint := fmt.Sprintf("/library/sections/%s/autocomplete?type=10&mood.query=%s",
		sectionKey, url.QueryEscape(query))
	var resp autocompleteResponse
	if err := c.do(ctx, http.MethodGet, endpoint, &resp); err != nil {
		return nil, err
	}
	tags := make([]Tag, 0, len(resp.MediaContainer.Directory))
	for _, dir := range resp.MediaContainer.Directory {
		tags = append(tags, Tag{ID: dir.ID, Tag: dir.Tag})
	}
	return tags, nil
}

// SearchTracks runs a filtered track search against one library section.
// The query string is usually built with [SmartFilter.SearchQuery].
func (c *Client) SearchTracks(ctx context.Context, sectionKey, query string) ([]Track, error) {
	endpoint := fmt.Sprintf("/library/sections/%s/all?%s", sectionKey, query)
	var resp tracksResponse
	if err := c.do(ctx, http.MethodGet, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Metadata, nil
}
