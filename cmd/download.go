package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/repositories"
	"github.com/plextool/plextool/internal/shared"
	"github.com/plextool/plextool/internal/tasks"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// Download copies the matched playlists' files into a local directory,
// skipping what is already there and resuming partials.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	client, err := r.userClient(ctx, cmd.String("user"))
	if err != nil {
		return err
	}
	selected, err := r.selectPlaylists(ctx, client, cmd.String("playlist"))
	if err != nil {
		return err
	}

	dest, err := r.pickDestination(cmd.String("dest"))
	if err != nil {
		return err
	}

	ledger, closeLedger, err := r.openLedger()
	if err != nil {
		r.logger.Warn("download history disabled", "err", err)
	}
	defer closeLedger()

	engine := tasks.NewDownloadEngine(client, ledger)
	failed := 0
	for _, playlist := range selected {
		if err := r.downloadOne(ctx, client, engine, playlist, dest, cmd.Bool("yes")); err != nil {
			if errors.Is(err, shared.ErrPartialFailure) {
				r.logger.Error("download finished with failures", "playlist", playlist.Title, "err", err)
				failed++
				continue
			}
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d playlists had failures", shared.ErrPartialFailure, failed, len(selected))
	}
	return nil
}

// downloadOne plans one playlist, confirms the byte count and fetches.
func (r *Runner) downloadOne(ctx context.Context, client *plex.Client, engine *tasks.DownloadEngine, playlist plex.Playlist, dest string, yes bool) error {
	tracks, err := client.PlaylistItems(ctx, playlist.RatingKey)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		r.writePlain("%s is empty, nothing to download.\n\n", playlist.Title)
		return nil
	}

	r.writePlain("Planning %s, %d tracks...\n", playlist.Title, len(tracks))
	plan, err := r.planDownload(ctx, engine, tracks, dest)
	if err != nil {
		return err
	}

	fetch := 0
	for _, item := range plan.Items {
		if !item.Skip {
			fetch++
		}
	}
	r.writePlainln("%s: %d files to fetch (%s), %d already there",
		playlist.Title, fetch, humanize.Bytes(uint64(plan.Fetch)), plan.Skipped)
	if fetch == 0 {
		r.writePlain("Everything is already on disk.\n\n")
		return nil
	}

	if err := r.confirm(fmt.Sprintf("Download %s to %s?", humanize.Bytes(uint64(plan.Fetch)), dest), yes); err != nil {
		if errors.Is(err, shared.ErrAborted) {
			r.writePlain("Skipped %s.\n\n", playlist.Title)
			return nil
		}
		return err
	}

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			// start updates carry the item, the bar already covers those
			if update.Phase == tasks.Download && update.Data == nil {
				r.writePlain("⬇  %s\n", update.Message)
			}
		}
	}()

	summary, err := engine.Run(ctx, progressCh, plan, r.bar())
	close(progressCh)
	<-done
	if err != nil && !errors.Is(err, shared.ErrPartialFailure) {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("Download: %s", playlist.Title))
	r.writePlain("✓ %d files, %s fetched to %s\n", summary.Succeeded, humanize.Bytes(uint64(summary.Bytes)), dest)
	if summary.Skipped > 0 {
		r.writePlain("%d skipped, already on disk\n", summary.Skipped)
	}
	if summary.Failed > 0 {
		r.writePlain("✗ %d failed:\n", summary.Failed)
		for _, f := range summary.Failures {
			r.writePlain("  - %s: %v\n", f.Title, f.Err)
		}
	}
	r.writePlain("\n")
	return err
}

// planDownload runs the read-only planning pass with its own progress
// stream, drained before the totals are rendered.
func (r *Runner) planDownload(ctx context.Context, engine *tasks.DownloadEngine, tracks []plex.Track, dest string) (*tasks.DownloadPlan, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase == tasks.PlanDownload {
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	plan, err := engine.Plan(ctx, progressCh, tracks, dest)
	close(progressCh)
	<-done
	return plan, err
}

// bar builds the per-file progress writer. Bars draw on stderr so stdout
// stays clean for summaries and json.
func (r *Runner) bar() tasks.Bar {
	return func(maxBytes int64, desc string) io.Writer {
		return progressbar.DefaultBytes(maxBytes, desc)
	}
}

// pickDestination resolves where files land: the flag wins, then the
// configured directory, then an interactive choice among mounted volumes
// and the usual folders.
func (r *Runner) pickDestination(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if dir := r.config.Downloads.Directory; dir != "" {
		return dir, nil
	}

	var extra []string
	if home, err := os.UserHomeDir(); err == nil {
		extra = append(extra, filepath.Join(home, "Downloads"), filepath.Join(home, "Music"))
	}
	dests := shared.ListDestinations(extra...)

	options := make([]string, 0, len(dests)+1)
	for _, d := range dests {
		options = append(options, formatDestination(d))
	}
	options = append(options, "Somewhere else...")

	idx, err := r.prompter.Select("Download to", options)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAborted, err)
	}
	if idx < len(dests) {
		return dests[idx].Path, nil
	}

	path, err := r.prompter.Input("Destination directory", "")
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAborted, err)
	}
	if path == "" {
		return "", fmt.Errorf("%w: no destination given", shared.ErrMissingArgument)
	}
	return path, nil
}

// formatDestination renders one select option, free space included when known.
func formatDestination(d shared.Destination) string {
	if d.Free == 0 {
		return d.Path
	}
	return fmt.Sprintf("%s (%s free)", d.Path, humanize.Bytes(d.Free))
}

// openLedger opens the download history database. Callers decide whether a
// missing ledger is fatal; the cleanup func is safe to call either way.
func (r *Runner) openLedger() (*repositories.DownloadRepository, func(), error) {
	noop := func() {}

	path, err := r.config.LedgerPath()
	if err != nil {
		return nil, noop, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, noop, err
	}
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, noop, err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, noop, err
	}
	return repositories.NewDownloadRepository(db), func() { db.Close() }, nil
}

// DownloadHistory lists what the ledger remembers, newest first.
func (r *Runner) DownloadHistory(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	ledger, closeLedger, err := r.openLedger()
	if err != nil {
		return err
	}
	defer closeLedger()

	downloads, err := ledger.History(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(downloads, true)
	}
	if len(downloads) == 0 {
		r.writePlain("No downloads recorded yet.\n")
		return nil
	}

	rows := make([][]string, 0, len(downloads))
	for _, d := range downloads {
		rows = append(rows, []string{d.Title, d.Path, humanize.Bytes(uint64(d.Size)), humanize.Time(d.DownloadedAt)})
	}
	r.writePlain("%s\n", renderTable([]string{"Track", "Path", "Size", "When"}, rows, 3))
	return nil
}
