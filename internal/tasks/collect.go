package tasks

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/shared"
)

// FallbackCollection is where tracks stored directly in a library root land.
const FallbackCollection = "Others"

// CollectEngine files every track of a music section into a collection named
// after the track's top-level folder.
type CollectEngine struct {
	api API
}

// NewCollectEngine creates a CollectEngine over the given API.
func NewCollectEngine(api API) *CollectEngine {
	return &CollectEngine{api: api}
}

// CollectionTally counts the tracks added to one collection.
type CollectionTally struct {
	Name  string
	Added int
}

// CollectResult reports one collect run over a section.
type CollectResult struct {
	Section  string
	Total    int // tracks scanned
	Tagged   int // collection tags added
	Tallies  []CollectionTally
	Failures []Failure
}

// Run scans all tracks of the section and adds each to the collection named
// after its first folder below the library location. Tracks already in their
// collection are left alone.
func (e *CollectEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, section *plex.Section) (*CollectResult, error) {
	sendProgress(progress, collectScanUpdate(section.Title))

	tracks, err := e.api.SearchTracks(ctx, section.Key, "type=10")
	if err != nil {
		return nil, err
	}

	result := &CollectResult{Section: section.Title, Total: len(tracks)}
	locations := section.Paths()
	counts := make(map[string]int)
	var order []string

	for i := range tracks {
		t := &tracks[i]
		name := collectionFor(t, locations)
		if name == "" || t.HasCollection(name) {
			continue
		}

		changed, err := e.api.AddCollection(ctx, t, name)
		if err != nil {
			result.Failures = append(result.Failures, Failure{Title: t.Title, Err: err})
			sendProgress(progress, collectFailedUpdate(i+1, len(tracks), t.Title, err))
			continue
		}
		if !changed {
			continue
		}

		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
		result.Tagged++
		sendProgress(progress, collectedUpdate(i+1, len(tracks), t.Title, name))
	}

	for _, name := range order {
		result.Tallies = append(result.Tallies, CollectionTally{Name: name, Added: counts[name]})
	}
	if len(result.Failures) > 0 {
		return result, fmt.Errorf("%w: %d tracks not collected", shared.ErrPartialFailure, len(result.Failures))
	}
	return result, nil
}

// collectionFor derives the collection name from the first folder between
// the library location and the track's file. Files in the location root and
// files outside every location fall back to FallbackCollection. Tracks
// without a file yield an empty name and are skipped.
func collectionFor(t *plex.Track, locations []string) string {
	if len(t.Media) == 0 || len(t.Media[0].Part) == 0 {
		return ""
	}
	file := strings.ReplaceAll(t.Media[0].Part[0].File, `\`, "/")
	if file == "" {
		return ""
	}

	dir := path.Dir(file)
	for _, loc := range locations {
		loc = strings.TrimRight(strings.ReplaceAll(loc, `\`, "/"), "/")
		if !strings.HasPrefix(strings.ToLower(dir+"/"), strings.ToLower(loc+"/")) {
			continue
		}
		rel := strings.Trim(dir[len(loc):], "/")
		if rel == "" {
			return FallbackCollection
		}
		first, _, _ := strings.Cut(rel, "/")
		return first
	}
	return FallbackCollection
}
