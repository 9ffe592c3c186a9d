package tasks

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize/english"
	"github.com/plextool/plextool/internal/plex"
)

// DeleteEngine removes library items from the server permanently.
type DeleteEngine struct {
	api API
}

// NewDeleteEngine creates a DeleteEngine over the given API.
func NewDeleteEngine(api API) *DeleteEngine {
	return &DeleteEngine{api: api}
}

// DeleteWarnings lists the reasons deleting a track deserves a second look,
// currently a user rating or recorded plays.
func DeleteWarnings(t *plex.Track) []string {
	var warnings []string
	if t.UserRating > 0 {
		warnings = append(warnings, fmt.Sprintf("rated %.1f", t.UserRating))
	}
	if t.ViewCount > 0 {
		warnings = append(warnings, english.Plural(t.ViewCount, "play", ""))
	}
	return warnings
}

// Run deletes the tracks one at a time. A failed delete is recorded and the
// loop moves on; the summary carries every failure and the freed bytes.
func (e *DeleteEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, tracks []plex.Track) (*Summary, error) {
	summary := &Summary{}

	for i := range tracks {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		t := &tracks[i]
		if err := e.api.DeleteItem(ctx, t.RatingKey); err != nil {
			summary.fail(t.Title, err)
			sendProgress(progress, deleteFailedUpdate(i+1, len(tracks), t.Title, err))
			continue
		}
		summary.Succeeded++
		summary.Bytes += t.FileSize()
		sendProgress(progress, deletedUpdate(i+1, len(tracks), t.Title))
	}

	return summary, summary.Err()
}
