package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/plextool/plextool/internal/dedup"
	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/shared"
)

// DedupEngine finds duplicate tracks on smart audio playlists, marks the
// lower-quality copies with the playlist's marker mood and keeps the
// playlist filter excluding them.
type DedupEngine struct {
	api API
}

// NewDedupEngine creates a DedupEngine over the given API.
func NewDedupEngine(api API) *DedupEngine {
	return &DedupEngine{api: api}
}

// DedupPlan is everything Plan computed for one playlist: the parsed smart
// filter with stale duplicate exclusions stripped, the grouped plan, and the
// state of the marker mood on the server.
type DedupPlan struct {
	Playlist plex.Playlist
	Section  *plex.Section
	Filter   *plex.SmartFilter
	Plan     *dedup.Plan
	MoodID   string // marker mood id, empty until the first tag creates it
	Stripped int    // stale exclusions removed from the filter
	Excluded bool   // the filter already excluded the marker before planning
}

// Changed reports whether applying the plan would touch the server at all.
func (dp *DedupPlan) Changed() bool {
	if dp.Plan.Changes() > 0 || dp.Stripped > 0 {
		return true
	}
	return dp.MoodID != "" && !dp.Excluded
}

// Plan inspects a smart audio playlist and computes the tag and filter
// changes that would bring it in line. Nothing is mutated.
//
// When the marker mood already exists the candidate set comes from two
// section searches over the stripped filter, first the tracks carrying the
// marker and then the rest. A playlist without the mood cannot be searched
// that way, so its own items are used instead.
func (e *DedupEngine) Plan(ctx context.Context, progress chan<- ProgressUpdate, playlist plex.Playlist, fields []dedup.MatchField) (*DedupPlan, error) {
	if !playlist.Smart || playlist.PlaylistType != "audio" {
		return nil, fmt.Errorf("%w: %s is not a smart audio playlist", shared.ErrInvalidFlag, playlist.Title)
	}

	sendProgress(progress, fetchPlaylistUpdate(playlist.Title))

	filter, err := plex.ParseContent(playlist.Content)
	if err != nil {
		return nil, err
	}

	sectionID, err := strconv.Atoi(filter.SectionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: playlist %s has no library section", shared.ErrAPIRequest, playlist.Title)
	}
	section, err := e.api.SectionByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	moods, err := e.api.SectionMoods(ctx, section.Key)
	if err != nil {
		return nil, err
	}

	marker := dedup.Marker(playlist.Title)
	var moodID string
	var markerIDs []string
	for _, m := range moods {
		if !dedup.IsMarker(m.Title) {
			continue
		}
		markerIDs = append(markerIDs, m.TagID())
		if strings.EqualFold(m.Title, marker) {
			moodID = m.TagID()
		}
	}

	// The filter is searched and rewritten without any duplicate exclusions.
	// The playlist's own marker gets restored on apply, so it does not count
	// as stale.
	excluded := moodID != "" && filter.ExcludesMood(moodID)
	stripped := filter.StripMoodExclusions(markerIDs)
	if excluded {
		stripped--
	}

	var candidates []dedup.Candidate
	if moodID != "" {
		sendProgress(progress, searchTracksUpdate(1, 2, "marked tracks"))
		marked, err := e.api.SearchTracks(ctx, section.Key, filter.SearchQuery(plex.Cond("track.mood", moodID)))
		if err != nil {
			return nil, err
		}
		sendProgress(progress, searchTracksUpdate(2, 2, "remaining tracks"))
		rest, err := e.api.SearchTracks(ctx, section.Key, filter.SearchQuery(plex.Cond("track.mood!", moodID)))
		if err != nil {
			return nil, err
		}
		candidates = make([]dedup.Candidate, 0, len(marked)+len(rest))
		for i := range marked {
			candidates = append(candidates, dedup.NewCandidate(&marked[i], true))
		}
		for i := range rest {
			candidates = append(candidates, dedup.NewCandidate(&rest[i], false))
		}
	} else {
		sendProgress(progress, searchTracksUpdate(1, 1, "playlist items"))
		items, err := e.api.PlaylistItems(ctx, playlist.RatingKey)
		if err != nil {
			return nil, err
		}
		candidates = make([]dedup.Candidate, 0, len(items))
		for i := range items {
			candidates = append(candidates, dedup.NewCandidate(&items[i], false))
		}
	}

	plan := dedup.BuildPlan(marker, fields, candidates)
	sendProgress(progress, planBuiltUpdate(plan))

	return &DedupPlan{
		Playlist: playlist,
		Section:  section,
		Filter:   filter,
		Plan:     plan,
		MoodID:   moodID,
		Stripped: stripped,
		Excluded: excluded,
	}, nil
}

// Apply performs the plan's tag edits and rewrites the playlist filter.
// Untags run before tags so a track that changed groups is never left
// carrying a stale marker. Tag failures are recorded per track and do not
// stop the loop; a filter write failure is fatal.
func (e *DedupEngine) Apply(ctx context.Context, progress chan<- ProgressUpdate, dp *DedupPlan) (*Summary, error) {
	summary := &Summary{}
	marker := dp.Plan.Marker

	toUntag, toTag := dp.Plan.ToUntag(), dp.Plan.ToTag()
	total := len(toUntag) + len(toTag)
	step := 0

	for _, c := range toUntag {
		step++
		changed, err := e.api.RemoveMood(ctx, c.Track, marker)
		if err != nil {
			summary.fail(c.Track.Title, err)
			sendProgress(progress, tagFailedUpdate(step, total, c.Track.Title, err))
			continue
		}
		if !changed {
			summary.Skipped++
			continue
		}
		summary.Succeeded++
		sendProgress(progress, untaggedUpdate(step, total, c.Track.Title))
	}

	tagged := false
	for _, c := range toTag {
		step++
		changed, err := e.api.AddMood(ctx, c.Track, marker)
		if err != nil {
			summary.fail(c.Track.Title, err)
			sendProgress(progress, tagFailedUpdate(step, total, c.Track.Title, err))
			continue
		}
		if !changed {
			summary.Skipped++
			continue
		}
		tagged = true
		summary.Succeeded++
		sendProgress(progress, taggedUpdate(step, total, c.Track.Title))
	}

	// the first tag on the server creates the mood, resolve its id now
	if dp.MoodID == "" && tagged {
		moods, err := e.api.SectionMoods(ctx, dp.Section.Key)
		if err != nil {
			return summary, err
		}
		for _, m := range moods {
			if strings.EqualFold(m.Title, marker) {
				dp.MoodID = m.TagID()
				break
			}
		}
	}

	if dp.MoodID != "" {
		dp.Filter.EnsureMoodExclusion(dp.MoodID)
	}
	if dp.Stripped > 0 || (dp.MoodID != "" && !dp.Excluded) {
		sendProgress(progress, rewriteFilterUpdate(dp.Stripped))
		if err := e.api.UpdatePlaylistFilter(ctx, dp.Playlist.RatingKey, dp.Filter); err != nil {
			return summary, err
		}
	}

	return summary, summary.Err()
}

// CleanupResult reports what CleanupStale removed.
type CleanupResult struct {
	Moods    []string // stale marker moods found in the section
	Cleared  int      // tracks the markers were removed from
	Failures []Failure
}

// CleanupStale removes marker moods that no longer belong to any audio
// playlist, e.g. after a playlist was renamed or deleted. Every track still
// carrying such a marker is untagged.
func (e *DedupEngine) CleanupStale(ctx context.Context, progress chan<- ProgressUpdate, section *plex.Section) (*CleanupResult, error) {
	moods, err := e.api.SectionMoods(ctx, section.Key)
	if err != nil {
		return nil, err
	}
	playlists, err := e.api.Playlists(ctx)
	if err != nil {
		return nil, err
	}

	titles := make(map[string]bool, len(playlists))
	for _, p := range playlists {
		if p.PlaylistType == "audio" {
			titles[strings.ToLower(p.Title)] = true
		}
	}

	var stale []plex.FilterChoice
	for _, m := range moods {
		if !dedup.IsMarker(m.Title) {
			continue
		}
		if titles[strings.ToLower(dedup.MarkerTitle(m.Title))] {
			continue
		}
		stale = append(stale, m)
	}

	result := &CleanupResult{}
	for i, mood := range stale {
		result.Moods = append(result.Moods, mood.Title)
		sendProgress(progress, staleMoodUpdate(i+1, len(stale), mood.Title))

		query := (&plex.SmartFilter{Type: "10", Root: plex.Cond("track.mood", mood.TagID())}).SearchQuery()
		carriers, err := e.api.SearchTracks(ctx, section.Key, query)
		if err != nil {
			result.Failures = append(result.Failures, Failure{Title: mood.Title, Err: err})
			continue
		}
		for j := range carriers {
			if _, err := e.api.RemoveMood(ctx, &carriers[j], mood.Title); err != nil {
				result.Failures = append(result.Failures, Failure{Title: carriers[j].Title, Err: err})
				continue
			}
			result.Cleared++
		}
	}

	if len(result.Failures) > 0 {
		return result, fmt.Errorf("%w: %d markers left in place", shared.ErrPartialFailure, len(result.Failures))
	}
	return result, nil
}
