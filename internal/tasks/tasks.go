// package tasks implements the maintenance workflows run against a media server.
//
// The engines (dedup, delete, download, update, collect) orchestrate their
// work over the API interface and emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/shared"
)

// API is the slice of the server client the engines depend on.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type API interface {
	Playlists(ctx context.Context) ([]plex.Playlist, error)
	Playlist(ctx context.Context, ratingKey string) (*plex.Playlist, error)
	PlaylistItems(ctx context.Context, ratingKey string) ([]plex.Track, error)
	UpdatePlaylistFilter(ctx context.Context, ratingKey string, filter *plex.SmartFilter) error
	SectionByID(ctx context.Context, id int) (*plex.Section, error)
	SectionMoods(ctx context.Context, sectionKey string) ([]plex.FilterChoice, error)
	SearchTracks(ctx context.Context, sectionKey, query string) ([]plex.Track, error)
	AddMood(ctx context.Context, track *plex.Track, mood string) (bool, error)
	RemoveMood(ctx context.Context, track *plex.Track, mood string) (bool, error)
	AddCollection(ctx context.Context, track *plex.Track, collection string) (bool, error)
	DeleteItem(ctx context.Context, ratingKey string) error
	CheckForUpdate(ctx context.Context) (*plex.Release, error)
	Sessions(ctx context.Context) ([]plex.Session, error)
	DownloadPart(ctx context.Context, key string, offset int64, w io.Writer) (int64, error)
	PartHead(ctx context.Context, key string, length int64) ([]byte, error)
}

var _ API = (*plex.Client)(nil)

// Failure records one item an operation could not process.
type Failure struct {
	Title string
	Err   error
}

// Summary totals a bulk operation. A failed item never aborts the loop, it
// is recorded here and reported once the loop finishes.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Bytes     int64
	Failures  []Failure
}

func (s *Summary) fail(title string, err error) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{Title: title, Err: err})
}

// Err returns ErrPartialFailure when any item failed, nil otherwise.
func (s *Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d items failed", shared.ErrPartialFailure, s.Failed, s.Succeeded+s.Failed+s.Skipped)
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
