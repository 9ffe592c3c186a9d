package tasks

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/plextool/plextool/internal/shared"
)

// DockerRestarter restarts containers through the local Docker daemon,
// configured the usual way via DOCKER_HOST and friends.
type DockerRestarter struct{}

// Restart restarts the named container with the daemon's default stop
// timeout.
func (DockerRestarter) Restart(ctx context.Context, name string) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("%w: connecting to docker: %v", shared.ErrServerUnreachable, err)
	}
	defer cli.Close()

	if err := cli.ContainerRestart(ctx, name, container.StopOptions{}); err != nil {
		return fmt.Errorf("%w: restarting container %s: %v", shared.ErrAPIRequest, name, err)
	}
	return nil
}
