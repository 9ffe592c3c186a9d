package main

import (
	"context"

	"github.com/plextool/plextool/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Update checks the server for a pending update and restarts its container
// to install one. Active playback defers the restart unless forced.
func (r *Runner) Update(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	client, err := r.connect(ctx)
	if err != nil {
		return err
	}

	container := cmd.String("container")
	if container == "" {
		container = r.config.Updater.Container
	}

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.CheckUpdate:
				r.writePlain("🔎 %s\n", update.Message)
			case tasks.RestartServer:
				r.writePlain("🔄 %s\n", update.Message)
			}
		}
	}()

	result, err := tasks.NewUpdateEngine(client, r.restarter).Run(ctx, progressCh, container, cmd.Bool("force"))
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	switch {
	case result.Release == nil:
		r.writePlain("Server is up to date.\n")
	case result.Deferred:
		r.writePlainln("Update %s is ready, restart deferred:", result.Release.Version)
		for _, s := range result.Sessions {
			r.writePlain("  - %s playing %s on %s\n", s.User.Title, s.Title, s.Player.Title)
		}
		r.writePlain("\nRun again with --force to restart anyway.\n")
	case result.Restarted:
		r.writePlain("✓ restarted %s, the update installs on boot\n", container)
	}
	return nil
}
