package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/shared"
	"github.com/plextool/plextool/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Delete removes every track on the matched playlists from the library,
// files included. Two prompts stand between the listing and the server.
func (r *Runner) Delete(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	client, err := r.userClient(ctx, cmd.String("user"))
	if err != nil {
		return err
	}
	selected, err := r.selectPlaylists(ctx, client, cmd.String("playlist"))
	if err != nil {
		return err
	}

	engine := tasks.NewDeleteEngine(client)
	failed := 0
	for _, playlist := range selected {
		if err := r.deleteOne(ctx, client, engine, playlist, cmd.Bool("yes")); err != nil {
			if errors.Is(err, shared.ErrPartialFailure) {
				r.logger.Error("delete finished with failures", "playlist", playlist.Title, "err", err)
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

// deleteOne lists one playlist's tracks with their size and warning flags,
// walks the double confirmation and deletes.
func (r *Runner) deleteOne(ctx context.Context, client *plex.Client, engine *tasks.DeleteEngine, playlist plex.Playlist, yes bool) error {
	tracks, err := client.PlaylistItems(ctx, playlist.RatingKey)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		r.writePlain("%s is empty, nothing to delete.\n\n", playlist.Title)
		return nil
	}

	var total int64
	rows := make([][]string, 0, len(tracks))
	for i := range tracks {
		t := &tracks[i]
		total += t.FileSize()
		rows = append(rows, []string{
			t.Title, t.GrandparentTitle, t.ParentTitle,
			humanize.Bytes(uint64(t.FileSize())),
			strings.Join(tasks.DeleteWarnings(t), ", "),
		})
	}

	r.writePlainln("%s: %d tracks, %s on disk", playlist.Title, len(tracks), humanize.Bytes(uint64(total)))
	r.writePlain("%s\n\n", renderTable([]string{"Track", "Artist", "Album", "Size", "Notes"}, rows, 4))

	if err := r.confirmDelete(fmt.Sprintf("%d tracks from %s", len(tracks), playlist.Title), yes); err != nil {
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
			if update.Phase == tasks.DeleteItems {
				r.writePlain("🗑  %s\n", update.Message)
			}
		}
	}()

	summary, err := engine.Run(ctx, progressCh, tracks)
	close(progressCh)
	<-done
	if err != nil && !errors.Is(err, shared.ErrPartialFailure) {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("Delete: %s", playlist.Title))
	r.writePlain("✓ %d tracks deleted, %s freed\n", summary.Succeeded, humanize.Bytes(uint64(summary.Bytes)))
	if summary.Failed > 0 {
		r.writePlain("✗ %d failed:\n", summary.Failed)
		for _, f := range summary.Failures {
			r.writePlain("  - %s: %v\n", f.Title, f.Err)
		}
	}
	r.writePlain("\n")
	return err
}

// confirmDelete gates a destructive run behind two prompts, the second one
// demanding a literal YES. The yes flag skips both.
func (r *Runner) confirmDelete(what string, yes bool) error {
	if yes {
		return nil
	}
	if err := r.confirm(fmt.Sprintf("Delete %s? The files go with them.", what), false); err != nil {
		return err
	}
	answer, err := r.prompter.Input("Type YES to delete for good", "")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAborted, err)
	}
	if answer != "YES" {
		return fmt.Errorf("%w: expected YES, got %q", shared.ErrAborted, answer)
	}
	return nil
}
