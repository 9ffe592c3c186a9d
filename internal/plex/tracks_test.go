package plex

import (
	"context"
	"net/http"
	"testing"
)

func TestAddMood(t *testing.T) {
	ctx := context.Background()

	t.Run("tags an untagged track", func(t *testing.T) {
		requests := 0
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			if r.Method != http.MethodPut {
				t.Errorf("expected PUT, got %s", r.Method)
			}
			if r.URL.Path != "/library/metadata/201" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("mood.locked") != "1" {
				t.Error("expected the mood field to be locked")
			}
			if q.Get("mood[].tag.tag") != "Duplicate Road Trip" {
				t.Errorf("unexpected tag param, query %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{}`))
		}))

		track := &Track{RatingKey: "201", Title: "Road Trip"}
		added, err := c.AddMood(ctx, track, "Duplicate Road Trip")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !added {
			t.Error("expected the mood to be added")
		}
		if requests != 1 {
			t.Errorf("expected 1 request, got %d", requests)
		}
		if !track.HasMood("Duplicate Road Trip") {
			t.Error("expected the track to carry the mood afterwards")
		}
	})

	t.Run("skips tracks that already carry it", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for an already tagged track")
		}))

		track := &Track{RatingKey: "201", Mood: []Tag{{Tag: "duplicate road trip"}}}
		added, err := c.AddMood(ctx, track, "Duplicate Road Trip")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if added {
			t.Error("expected no tagging for an existing mood")
		}
	})
}

func TestRemoveMood(t *testing.T) {
	ctx := context.Background()

	t.Run("strips a stale marker", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("mood[].tag.tag-") != "Duplicate Road Trip" {
				t.Errorf("unexpected removal param, query %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{}`))
		}))

		track := &Track{
			RatingKey: "201",
			Mood:      []Tag{{Tag: "Duplicate Road Trip"}, {Tag: "Mellow"}},
		}
		removed, err := c.RemoveMood(ctx, track, "duplicate road trip")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !removed {
			t.Error("expected the mood to be removed")
		}
		if track.HasMood("Duplicate Road Trip") {
			t.Error("expected the mood to be gone from the track")
		}
		if !track.HasMood("Mellow") {
			t.Error("expected unrelated moods to survive")
		}
	})

	t.Run("no request for absent moods", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}))

		track := &Track{RatingKey: "201"}
		removed, err := c.RemoveMood(ctx, track, "Duplicate Road Trip")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if removed {
			t.Error("expected nothing to be removed")
		}
	})
}

func TestAddCollection(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("collection.locked") != "1" {
			t.Error("expected the collection field to be locked")
		}
		if q.Get("collection[].tag.tag") != "Greatest Hits" {
			t.Errorf("unexpected tag param, query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{}`))
	}))

	track := &Track{RatingKey: "201"}
	added, err := c.AddCollection(context.Background(), track, "Greatest Hits")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !added {
		t.Error("expected the collection to be added")
	}

	added, err = c.AddCollection(context.Background(), track, "Greatest Hits")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if added {
		t.Error("expected the second add to be a no-op")
	}
}

func TestDeleteItem(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		if r.URL.Path != "/library/metadata/201" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))

	if err := c.DeleteItem(context.Background(), "201"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
