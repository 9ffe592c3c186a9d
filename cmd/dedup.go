package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/plextool/plextool/internal/dedup"
	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/shared"
	"github.com/plextool/plextool/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Dedup plans and applies deduplication for every playlist the selector
// matches. Each playlist gets its own plan and confirmation; declining one
// skips it and moves on.
func (r *Runner) Dedup(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	fields, err := dedup.ParseMatchFields(cmd.String("match"))
	if err != nil {
		return err
	}

	client, err := r.userClient(ctx, cmd.String("user"))
	if err != nil {
		return err
	}
	selected, err := r.selectPlaylists(ctx, client, cmd.String("playlist"))
	if err != nil {
		return err
	}

	engine := tasks.NewDedupEngine(client)
	failed := 0
	for _, p := range selected {
		// list responses omit the smart filter content, fetch the full record
		playlist, err := client.Playlist(ctx, p.RatingKey)
		if err != nil {
			return err
		}
		if err := r.dedupOne(ctx, engine, *playlist, fields, cmd.Bool("yes")); err != nil {
			if errors.Is(err, shared.ErrPartialFailure) {
				r.logger.Error("dedup finished with failures", "playlist", playlist.Title, "err", err)
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

// dedupOne runs plan, show, confirm, apply for a single playlist.
func (r *Runner) dedupOne(ctx context.Context, engine *tasks.DedupEngine, playlist plex.Playlist, fields []dedup.MatchField, yes bool) error {
	dp, err := r.planDedup(ctx, engine, playlist, fields)
	if err != nil {
		return err
	}

	r.renderDedupPlan(dp)
	if !dp.Changed() {
		r.writePlain("Nothing to change, %s is already in shape.\n\n", playlist.Title)
		return nil
	}

	if err := r.confirm(fmt.Sprintf("Apply these changes to %s?", playlist.Title), yes); err != nil {
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
			switch update.Phase {
			case tasks.TagTracks:
				r.writePlain("🏷  %s\n", update.Message)
			case tasks.RewriteFilter:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	summary, err := engine.Apply(ctx, progressCh, dp)
	close(progressCh)
	<-done
	if err != nil && !errors.Is(err, shared.ErrPartialFailure) {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("Dedup: %s", playlist.Title))
	r.writePlain("✓ %d tag edits applied, %d skipped\n", summary.Succeeded, summary.Skipped)
	if summary.Failed > 0 {
		r.writePlain("✗ %d failed:\n", summary.Failed)
		for _, f := range summary.Failures {
			r.writePlain("  - %s: %v\n", f.Title, f.Err)
		}
	}
	r.writePlain("\n")
	return err
}

// planDedup runs the read-only planning pass with its own progress stream,
// drained before the plan is rendered so the output never interleaves.
func (r *Runner) planDedup(ctx context.Context, engine *tasks.DedupEngine, playlist plex.Playlist, fields []dedup.MatchField) (*tasks.DedupPlan, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchPlaylist:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.SearchTracks:
				r.writePlain("🔍 %s\n", update.Message)
			}
		}
	}()

	dp, err := engine.Plan(ctx, progressCh, playlist, fields)
	close(progressCh)
	<-done
	return dp, err
}

// renderDedupPlan prints what applying would change. Survivors stay
// unlisted unless their stale marker needs clearing.
func (r *Runner) renderDedupPlan(dp *tasks.DedupPlan) {
	plan := dp.Plan
	r.writePlainln("%s: %d tracks, %d unique, %d duplicates",
		dp.Playlist.Title, plan.Total, len(plan.Unique), len(plan.Duplicates))

	if len(plan.UnknownCodecs) > 0 {
		r.writePlain("⚠  codecs without a quality rank, treated as lowest: %s\n", strings.Join(plan.UnknownCodecs, ", "))
	}
	if plan.Ungrouped > 0 {
		r.writePlain("⚠  %d tracks without a match key stay unique\n", plan.Ungrouped)
	}

	if toTag := plan.ToTag(); len(toTag) > 0 {
		r.writePlain("\nTo mark %q (%d):\n", plan.Marker, len(toTag))
		r.writePlain("%s\n", renderTable([]string{"Track", "Artist", "Codec", "Bitrate"}, candidateRows(toTag), 4))
	}
	if toUntag := plan.ToUntag(); len(toUntag) > 0 {
		r.writePlain("\nTo clear, best copy again (%d):\n", len(toUntag))
		r.writePlain("%s\n", renderTable([]string{"Track", "Artist", "Codec", "Bitrate"}, candidateRows(toUntag), 4))
	}

	if !dp.Excluded && (dp.MoodID != "" || len(plan.ToTag()) > 0) {
		r.writePlain("Filter: will exclude tracks marked %q\n", plan.Marker)
	}
	if dp.Stripped > 0 {
		r.writePlain("Filter: %d stale marker exclusions will be dropped\n", dp.Stripped)
	}
	r.writePlain("\n")
}

func candidateRows(candidates []*dedup.Candidate) [][]string {
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		bitrate := ""
		if c.Quality.Bitrate > 0 {
			bitrate = strconv.Itoa(c.Quality.Bitrate) + " kbps"
		}
		rows = append(rows, []string{c.Track.Title, c.Track.GrandparentTitle, c.Codec, bitrate})
	}
	return rows
}

// DedupCleanup clears marker moods left behind by renamed or deleted
// playlists from one library section.
func (r *Runner) DedupCleanup(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	client, err := r.connect(ctx)
	if err != nil {
		return err
	}
	section, err := client.SectionByTitle(ctx, cmd.String("section"))
	if err != nil {
		return err
	}

	if err := r.confirm(fmt.Sprintf("Scan %s for stale duplicate markers and clear them?", section.Title), cmd.Bool("yes")); err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase == tasks.CleanupMoods {
				r.writePlain("🧹 %s\n", update.Message)
			}
		}
	}()

	result, err := tasks.NewDedupEngine(client).CleanupStale(ctx, progressCh, section)
	close(progressCh)
	<-done
	if result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Marker Cleanup")
	if len(result.Moods) == 0 {
		r.writePlain("No stale markers in %s.\n", section.Title)
	} else {
		r.writePlain("Stale markers: %s\n", strings.Join(result.Moods, ", "))
		r.writePlain("✓ cleared from %d tracks\n", result.Cleared)
	}
	if len(result.Failures) > 0 {
		r.writePlain("✗ %d left in place:\n", len(result.Failures))
		for _, f := range result.Failures {
			r.writePlain("  - %s: %v\n", f.Title, f.Err)
		}
	}
	return err
}
