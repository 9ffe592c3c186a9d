package tasks

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/repositories"
	"github.com/plextool/plextool/internal/shared"
)

// resume only after the local head matches the remote part
const resumeProbeSize = 1 << 20

// Bar builds a progress writer for one file. The CLI backs it with a
// terminal progress bar; nil disables per-byte progress.
type Bar func(maxBytes int64, desc string) io.Writer

// DownloadEngine copies media files from the server to a local destination.
// A nil ledger disables download history.
type DownloadEngine struct {
	api    API
	ledger *repositories.DownloadRepository
}

// NewDownloadEngine creates a DownloadEngine over the given API and ledger.
func NewDownloadEngine(api API, ledger *repositories.DownloadRepository) *DownloadEngine {
	return &DownloadEngine{api: api, ledger: ledger}
}

// DownloadItem is one file the engine will fetch.
type DownloadItem struct {
	Track  *plex.Track
	PartID int
	Key    string // download endpoint of the part
	Path   string // destination path
	Size   int64  // full size of the part
	Offset int64  // tentative resume point, verified before use
	Skip   bool
	Reason string // why the item is skipped
}

// DownloadPlan is the dry-run result: every item with its target path and
// the bytes a run would fetch.
type DownloadPlan struct {
	Dest    string
	Items   []DownloadItem
	Fetch   int64 // bytes left to download
	Skipped int
}

// Plan computes the target path for every track and decides what actually
// needs fetching. Files whose size already matches are skipped, as are files
// the ledger has verified before. A smaller file on disk becomes a resume
// candidate; its offset is validated against the remote during Run.
// Plan itself never writes.
func (e *DownloadEngine) Plan(ctx context.Context, progress chan<- ProgressUpdate, tracks []plex.Track, dest string) (*DownloadPlan, error) {
	plan := &DownloadPlan{Dest: dest}
	sections := make(map[int]*plex.Section)

	for i := range tracks {
		t := &tracks[i]
		item := DownloadItem{Track: t}

		if len(t.Media) == 0 || len(t.Media[0].Part) == 0 {
			item.Skip = true
			item.Reason = "no file on the server"
			item.Path = t.Title
			plan.Skipped++
			plan.Items = append(plan.Items, item)
			continue
		}

		part := &t.Media[0].Part[0]
		item.PartID = part.ID
		item.Key = part.Key + "?download=1"
		item.Size = part.Size

		rel, err := e.relativePath(ctx, sections, t, part)
		if err != nil {
			return nil, err
		}
		item.Path = filepath.Join(dest, rel)

		e.checkExisting(&item)
		if item.Skip {
			plan.Skipped++
		} else {
			plan.Fetch += item.Size - item.Offset
		}
		plan.Items = append(plan.Items, item)
		sendProgress(progress, planItemUpdate(i+1, len(tracks), &item))
	}

	return plan, nil
}

// relativePath places the file under its path within the library section,
// falling back to the bare file name when the section is unknown.
func (e *DownloadEngine) relativePath(ctx context.Context, sections map[int]*plex.Section, t *plex.Track, part *plex.Part) (string, error) {
	if t.LibrarySectionID == 0 {
		return shared.CleanPathPart(path.Base(part.File)), nil
	}

	section, ok := sections[t.LibrarySectionID]
	if !ok {
		var err error
		section, err = e.api.SectionByID(ctx, t.LibrarySectionID)
		if err != nil {
			return "", err
		}
		sections[t.LibrarySectionID] = section
	}

	if rel, ok := shared.UniquePath(part.File, section.Paths()); ok {
		return rel, nil
	}
	return shared.CleanPathPart(path.Base(part.File)), nil
}

// checkExisting fills the item's skip flag or resume offset from the ledger
// and the file on disk.
func (e *DownloadEngine) checkExisting(item *DownloadItem) {
	fi, statErr := os.Stat(item.Path)

	if e.ledger != nil {
		if size, ok, err := e.ledger.Completed(item.PartID, item.Path); err == nil && ok && size == item.Size {
			if statErr == nil && fi.Size() == item.Size {
				item.Skip = true
				item.Reason = "verified earlier"
				return
			}
			// recorded file is gone or changed, drop the stale entry
			e.ledger.Forget(item.PartID, item.Path)
		}
	}

	if statErr != nil {
		return
	}
	switch {
	case fi.Size() == item.Size:
		item.Skip = true
		item.Reason = "size matches"
	case fi.Size() < item.Size:
		item.Offset = fi.Size()
	}
	// a larger file is junk, restart from zero
}

// Run fetches every planned item sequentially. Failures are recorded per
// item and the loop continues; completed files go into the ledger.
func (e *DownloadEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, plan *DownloadPlan, bar Bar) (*Summary, error) {
	summary := &Summary{}
	total := len(plan.Items)

	for i := range plan.Items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		item := &plan.Items[i]
		if item.Skip {
			summary.Skipped++
			sendProgress(progress, downloadSkippedUpdate(i+1, total, item.Track.Title))
			continue
		}

		written, err := e.fetch(ctx, progress, i+1, total, item, bar)
		if err != nil {
			summary.fail(item.Track.Title, err)
			sendProgress(progress, downloadFailedUpdate(i+1, total, item.Track.Title, err))
			continue
		}
		summary.Succeeded++
		summary.Bytes += written
		sendProgress(progress, downloadDoneUpdate(i+1, total, item.Track.Title, written))

		if e.ledger != nil {
			// history is best effort, a ledger error never fails a download
			e.ledger.Record(&repositories.Download{
				RatingKey: item.Track.RatingKey,
				PartID:    item.PartID,
				Title:     item.Track.Title,
				Path:      item.Path,
				Size:      item.Size,
			})
		}
	}

	return summary, summary.Err()
}

func (e *DownloadEngine) fetch(ctx context.Context, progress chan<- ProgressUpdate, step, total int, item *DownloadItem, bar Bar) (int64, error) {
	if item.Offset > 0 {
		ok, err := e.resumable(ctx, item)
		if err != nil {
			return 0, err
		}
		if !ok {
			item.Offset = 0
		}
	}

	if err := os.MkdirAll(filepath.Dir(item.Path), 0o755); err != nil {
		return 0, err
	}

	flags := os.O_CREATE | os.O_WRONLY
	if item.Offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(item.Path, flags, 0o644)
	if err != nil {
		return 0, err
	}

	sendProgress(progress, downloadStartUpdate(step, total, item))

	var w io.Writer = f
	if bar != nil {
		if pw := bar(item.Size-item.Offset, item.Track.Title); pw != nil {
			w = io.MultiWriter(f, pw)
		}
	}

	written, err := e.api.DownloadPart(ctx, item.Key, item.Offset, w)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return written, err
}

// resumable compares the local file head with the remote part so a resume
// never splices two different encodes together. The probe covers the first
// MiB at most.
func (e *DownloadEngine) resumable(ctx context.Context, item *DownloadItem) (bool, error) {
	probe := item.Offset
	if probe > resumeProbeSize {
		probe = resumeProbeSize
	}

	remote, err := e.api.PartHead(ctx, item.Key, probe)
	if err != nil {
		return false, err
	}

	f, err := os.Open(item.Path)
	if err != nil {
		// the partial vanished since planning, restart
		return false, nil
	}
	defer f.Close()

	local := make([]byte, len(remote))
	if _, err := io.ReadFull(f, local); err != nil {
		return false, nil
	}
	return bytes.Equal(local, remote), nil
}
