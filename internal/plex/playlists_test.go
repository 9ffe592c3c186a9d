package plex

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/plextool/plextool/internal/shared"
)

func TestPlaylists(t *testing.T) {
	ctx := context.Background()

	t.Run("lists sorted by title", func(t *testing.T) {
		payload := `{"MediaContainer": {"size": 3, "Metadata": [
			{"ratingKey": "3", "title": "zebra mix", "playlistType": "audio"},
			{"ratingKey": "1", "title": "Road Trip", "playlistType": "audio", "smart": true},
			{"ratingKey": "2", "title": "amped", "playlistType": "audio"}
		]}}`
		c := newTestClient(t, jsonHandler(t, "/playlists", payload))

		playlists, err := c.Playlists(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var titles []string
		for _, p := range playlists {
			titles = append(titles, p.Title)
		}
		want := []string{"amped", "Road Trip", "zebra mix"}
		for i := range want {
			if titles[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, titles)
			}
		}
	})

	t.Run("single playlist carries the content uri", func(t *testing.T) {
		payload := `{"MediaContainer": {"Metadata": [
			{"ratingKey": "1", "title": "Road Trip", "smart": true,
			 "content": "server://m/com.plexapp.plugins.library/library/sections/5/all?type=10&genre=1"}
		]}}`
		c := newTestClient(t, jsonHandler(t, "/playlists/1", payload))

		playlist, err := c.Playlist(ctx, "1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist.Content == "" {
			t.Error("expected content uri to be populated")
		}
	})

	t.Run("missing playlist", func(t *testing.T) {
		c := newTestClient(t, jsonHandler(t, "", `{"MediaContainer": {"Metadata": []}}`))
		if _, err := c.Playlist(ctx, "404"); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("items", func(t *testing.T) {
		payload := `{"MediaContainer": {"size": 2, "Metadata": [
			{"ratingKey": "201", "title": "Road Trip"},
			{"ratingKey": "202", "title": "Highway Song"}
		]}}`
		c := newTestClient(t, jsonHandler(t, "/playlists/1/items", payload))

		tracks, err := c.PlaylistItems(ctx, "1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
	})
}

func TestPlaylistFilter(t *testing.T) {
	ctx := context.Background()

	t.Run("parses a smart playlist", func(t *testing.T) {
		payload := `{"MediaContainer": {"Metadata": [
			{"ratingKey": "1", "title": "Road Trip", "smart": true,
			 "content": "server://m/com.plexapp.plugins.library/library/sections/5/all?type=10&genre=1"}
		]}}`
		c := newTestClient(t, jsonHandler(t, "", payload))

		sf, err := c.PlaylistFilter(ctx, "1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if sf.SectionKey != "5" {
			t.Errorf("expected section key 5, got %s", sf.SectionKey)
		}
	})

	t.Run("rejects dumb playlists", func(t *testing.T) {
		payload := `{"MediaContainer": {"Metadata": [
			{"ratingKey": "2", "title": "Hand Picked", "smart": false}
		]}}`
		c := newTestClient(t, jsonHandler(t, "", payload))

		if _, err := c.PlaylistFilter(ctx, "2"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Fatalf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestUpdatePlaylistFilter(t *testing.T) {
	sf := &SmartFilter{Machine: "m", SectionKey: "5", Type: "10", Root: Cond("track.mood!", "51334")}

	var gotURI string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if r.URL.Path != "/playlists/1/items" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotURI = r.URL.Query().Get("uri")
		w.Write([]byte(`{}`))
	}))

	if err := c.UpdatePlaylistFilter(context.Background(), "1", sf); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotURI != sf.Encode() {
		t.Errorf("expected uri %s, got %s", sf.Encode(), gotURI)
	}
	if decoded, _ := url.QueryUnescape(gotURI); !strings.Contains(decoded, "track.mood!=51334") {
		t.Errorf("expected the exclusion in the uri, got %s", decoded)
	}
}

func TestSelectPlaylists(t *testing.T) {
	playlists := []Playlist{
		{RatingKey: "1", Title: "Road Trip"},
		{RatingKey: "2", Title: "road trip extended"},
		{RatingKey: "3", Title: "Workout"},
	}

	tc := []struct {
		name    string
		pattern string
		want    []string
		wantErr error
	}{
		{"exact title wins", "Road Trip", []string{"1"}, nil},
		{"exact is case-insensitive", "road trip", []string{"1"}, nil},
		{"regex fallback", "(?i)^road", []string{"1", "2"}, nil},
		{"regex matches anywhere", "trip", []string{"2"}, nil},
		{"no match", "Jazz", nil, shared.ErrNoMatch},
		{"bad regex", "([", nil, shared.ErrInvalidFlag},
	}

	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			got, err := SelectPlaylists(playlists, c.pattern)
			if c.wantErr != nil {
				if !errors.Is(err, c.wantErr) {
					t.Fatalf("expected %v, got %v", c.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			var keys []string
			for _, p := range got {
				keys = append(keys, p.RatingKey)
			}
			if len(keys) != len(c.want) {
				t.Fatalf("expected %v, got %v", c.want, keys)
			}
			for i := range c.want {
				if keys[i] != c.want[i] {
					t.Errorf("expected %v, got %v", c.want, keys)
				}
			}
		})
	}
}
