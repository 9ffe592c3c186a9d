package tasks

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/plextool/plextool/internal/dedup"
	"github.com/plextool/plextool/internal/plex"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	SearchTracks
	BuildPlan
	TagTracks
	RewriteFilter
	CleanupMoods
	DeleteItems
	PlanDownload
	Download
	CheckUpdate
	RestartServer
	Collect
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case SearchTracks:
		return "search_tracks"
	case BuildPlan:
		return "build_plan"
	case TagTracks:
		return "tag_tracks"
	case RewriteFilter:
		return "rewrite_filter"
	case CleanupMoods:
		return "cleanup_moods"
	case DeleteItems:
		return "delete_items"
	case PlanDownload:
		return "plan_download"
	case Download:
		return "download"
	case CheckUpdate:
		return "check_update"
	case RestartServer:
		return "restart_server"
	case Collect:
		return "collect"
	default:
		return ""
	}
}

func fetchPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Reading playlist %s...", name),
	}
}

func searchTracksUpdate(step, total int, what string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching %s...", step, total, what),
	}
}

func planBuiltUpdate(plan *dedup.Plan) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildPlan,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d duplicates among %d tracks", len(plan.Duplicates), plan.Total),
		Data:    plan,
	}
}

func taggedUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TagTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ marked %s", step, total, title),
	}
}

func untaggedUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TagTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ cleared %s", step, total, title),
	}
}

func tagFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TagTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func rewriteFilterUpdate(stripped int) ProgressUpdate {
	msg := "Updating playlist filter..."
	if stripped > 0 {
		msg = fmt.Sprintf("Updating playlist filter (%d stale exclusions removed)...", stripped)
	}
	return ProgressUpdate{
		Phase:   RewriteFilter,
		Step:    1,
		Total:   1,
		Message: msg,
	}
}

func staleMoodUpdate(step, total int, mood string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CleanupMoods,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Clearing stale marker %s...", step, total, mood),
	}
}

func deletedUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ deleted %s", step, total, title),
	}
}

func deleteFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func planItemUpdate(step, total int, item *DownloadItem) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s (%s)", step, total, item.Path, humanize.Bytes(uint64(item.Size)))
	if item.Skip {
		msg = fmt.Sprintf("[%d/%d] %s already downloaded", step, total, item.Path)
	}
	return ProgressUpdate{
		Phase:   PlanDownload,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    item,
	}
}

func downloadStartUpdate(step, total int, item *DownloadItem) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s...", step, total, item.Track.Title)
	if item.Offset > 0 {
		msg = fmt.Sprintf("[%d/%d] resuming %s at %s...", step, total, item.Track.Title, humanize.Bytes(uint64(item.Offset)))
	}
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    item,
	}
}

func downloadDoneUpdate(step, total int, title string, written int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, title, humanize.Bytes(uint64(written))),
	}
}

func downloadSkippedUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] skipped %s", step, total, title),
	}
}

func downloadFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func checkUpdateUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckUpdate,
		Step:    1,
		Total:   2,
		Message: "Checking for server updates...",
	}
}

func releaseFoundUpdate(release *plex.Release) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckUpdate,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Update available: %s", release.Version),
		Data:    release,
	}
}

func sessionsDeferUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RestartServer,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d active sessions, deferring restart", count),
	}
}

func restartUpdate(container string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RestartServer,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Restarting container %s...", container),
	}
}

func collectScanUpdate(section string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Collect,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Scanning section %s...", section),
	}
}

func collectedUpdate(step, total int, title, collection string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Collect,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ added %s to %s", step, total, title, collection),
	}
}

func collectFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Collect,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}
