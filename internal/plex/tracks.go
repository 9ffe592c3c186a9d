package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// editTags applies a tag edit to one item. Field is the tag dimension
// ("mood", "collection"), op is "" to add and "-" to remove. Locking the
// field keeps the scanner from clobbering the edit on the next refresh.
func (c *Client) editTags(ctx context.Context, ratingKey, field, op, tag string) error {
	form := url.Values{}
	form.Set(field+".locked", "1")
	form.Set(fmt.Sprintf("%s[].tag.tag%s", field, op), tag)
	endpoint := "/library/metadata/" + ratingKey + "?" + form.Encode()
	return c.do(ctx, http.MethodPut, endpoint, nil)
}

// AddMood tags a track with a mood. Reports false without a request when
// the track already carries it. The track's tag list is updated in place so
// repeated calls over one fetch stay consistent.
func (c *Client) AddMood(ctx context.Context, track *Track, mood string) (bool, error) {
	if track.HasMood(mood) {
		return false, nil
	}
	if err := c.editTags(ctx, track.RatingKey, "mood", "", mood); err != nil {
		return false, err
	}
	track.Mood = append(track.Mood, Tag{Tag: mood})
	return true, nil
}

// RemoveMood strips a mood from a track, matching case-insensitively.
// Reports false without a request when the track does not carry it.
func (c *Client) RemoveMood(ctx context.Context, track *Track, mood string) (bool, error) {
	if !track.HasMood(mood) {
		return false, nil
	}
	if err := c.editTags(ctx, track.RatingKey, "mood", "-", mood); err != nil {
		return false, err
	}
	kept := track.Mood[:0]
	for _, t := range track.Mood {
		if !strings.EqualFold(t.Tag, mood) {
			kept = append(kept, t)
		}
	}
	track.Mood = kept
	return true, nil
}

// AddCollection adds a track to a collection, skipping tracks already in it.
func (c *Client) AddCollection(ctx context.Context, track *Track, collection string) (bool, error) {
	if track.HasCollection(collection) {
		return false, nil
	}
	if err := c.editTags(ctx, track.RatingKey, "collection", "", collection); err != nil {
		return false, err
	}
	track.Collection = append(track.Collection, Tag{Tag: collection})
	return true, nil
}

// DeleteItem removes an item from the library. The server deletes the
// underlying files when its allowMediaDeletion setting is on.
func (c *Client) DeleteItem(ctx context.Context, ratingKey string) error {
	return c.do(ctx, http.MethodDelete, "/library/metadata/"+ratingKey, nil)
}
