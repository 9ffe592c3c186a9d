package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/plextool/plextool/internal/formatter"
	"github.com/plextool/plextool/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistsList prints the server's audio playlists, every type with --all.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	client, err := r.userClient(ctx, cmd.String("user"))
	if err != nil {
		return err
	}
	playlists, err := client.Playlists(ctx)
	if err != nil {
		return err
	}

	if !cmd.Bool("all") {
		audio := playlists[:0]
		for _, p := range playlists {
			if p.PlaylistType == "audio" {
				audio = append(audio, p)
			}
		}
		playlists = audio
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	if len(playlists) == 0 {
		r.writePlain("No playlists found.\n")
		return nil
	}

	rows := make([][]string, 0, len(playlists))
	for _, p := range playlists {
		smart := ""
		if p.Smart {
			smart = "✓"
		}
		rows = append(rows, []string{
			p.Title,
			p.PlaylistType,
			smart,
			strconv.Itoa(p.LeafCount),
			shared.FormatDuration(p.Duration),
		})
	}
	r.writePlain("%s\n", renderTable([]string{"Title", "Type", "Smart", "Tracks", "Duration"}, rows, 4, 5))
	return nil
}

// PlaylistsExport writes the matching playlists' tracks to disk as extended
// M3U or CSV.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	client, err := r.userClient(ctx, cmd.String("user"))
	if err != nil {
		return err
	}
	playlists, err := r.selectPlaylists(ctx, client, cmd.String("playlist"))
	if err != nil {
		return err
	}

	format := cmd.String("format")
	out := cmd.String("out")
	if out != "" && len(playlists) > 1 {
		return fmt.Errorf("%w: --out fits a single playlist, %d matched", shared.ErrInvalidFlag, len(playlists))
	}

	for _, playlist := range playlists {
		tracks, err := client.PlaylistItems(ctx, playlist.RatingKey)
		if err != nil {
			return err
		}
		path, err := formatter.WriteExport(playlist, tracks, format, out)
		if err != nil {
			return err
		}
		r.logger.Debug("playlist exported", "playlist", playlist.Title, "path", path)
		r.writePlain("✓ %s: %d tracks to %s\n", playlist.Title, len(tracks), path)
	}
	return nil
}
