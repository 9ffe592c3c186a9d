package tasks

import (
	"context"

	"github.com/plextool/plextool/internal/plex"
)

// Restarter restarts whatever hosts the media server.
type Restarter interface {
	Restart(ctx context.Context, name string) error
}

// UpdateEngine performs a single update check. A containerized server
// installs pending updates on boot, so applying one means restarting the
// hosting container.
type UpdateEngine struct {
	api       API
	restarter Restarter
}

// NewUpdateEngine creates an UpdateEngine over the given API and restarter.
func NewUpdateEngine(api API, restarter Restarter) *UpdateEngine {
	return &UpdateEngine{api: api, restarter: restarter}
}

// UpdateResult reports what one check did.
type UpdateResult struct {
	Release   *plex.Release  // nil when the server is up to date
	Sessions  []plex.Session // active sessions at check time
	Deferred  bool           // restart skipped because of active sessions
	Restarted bool
}

// Run checks for a pending server update and restarts the container when one
// is available. Active playback defers the restart unless force is set. The
// check is single shot so it can run from cron.
func (e *UpdateEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, container string, force bool) (*UpdateResult, error) {
	sendProgress(progress, checkUpdateUpdate())

	release, err := e.api.CheckForUpdate(ctx)
	if err != nil {
		return nil, err
	}
	result := &UpdateResult{Release: release}
	if release == nil {
		return result, nil
	}
	sendProgress(progress, releaseFoundUpdate(release))

	sessions, err := e.api.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	result.Sessions = sessions

	if len(sessions) > 0 && !force {
		result.Deferred = true
		sendProgress(progress, sessionsDeferUpdate(len(sessions)))
		return result, nil
	}

	sendProgress(progress, restartUpdate(container))
	if err := e.restarter.Restart(ctx, container); err != nil {
		return result, err
	}
	result.Restarted = true
	return result, nil
}
