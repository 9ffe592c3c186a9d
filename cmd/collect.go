package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/plextool/plextool/internal/shared"
	"github.com/plextool/plextool/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Collect files every track of a music section into a collection named
// after its top-level folder, so folder-organized libraries get browsable
// collections for free.
func (r *Runner) Collect(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	client, err := r.connect(ctx)
	if err != nil {
		return err
	}
	section, err := client.SectionByTitle(ctx, cmd.String("section"))
	if err != nil {
		return err
	}

	if err := r.confirm(fmt.Sprintf("Tag every track in %s with its folder collection?", section.Title), cmd.Bool("yes")); err != nil {
		return err
	}

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase == tasks.Collect {
				r.writePlain("📚 %s\n", update.Message)
			}
		}
	}()

	result, err := tasks.NewCollectEngine(client).Run(ctx, progressCh, section)
	close(progressCh)
	<-done
	if err != nil && !errors.Is(err, shared.ErrPartialFailure) {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("Collect: %s", section.Title))
	r.writePlain("✓ %d of %d tracks tagged\n", result.Tagged, result.Total)
	if len(result.Tallies) > 0 {
		rows := make([][]string, 0, len(result.Tallies))
		for _, tally := range result.Tallies {
			rows = append(rows, []string{tally.Name, strconv.Itoa(tally.Added)})
		}
		r.writePlain("%s\n", renderTable([]string{"Collection", "Added"}, rows, 2))
	}
	if len(result.Failures) > 0 {
		r.writePlain("✗ %d failed:\n", len(result.Failures))
		for _, f := range result.Failures {
			r.writePlain("  - %s: %v\n", f.Title, f.Err)
		}
	}
	return err
}
