package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/plextool/plextool/internal/credentials"
	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in to a Plex account, picks a server and stores its
// credentials. Existing credentials are kept unless --relink is set.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	if _, err := credentials.Load(r.settingsPath); err == nil && !cmd.Bool("relink") {
		r.writePlain("Already signed in, settings at %s\n", r.settingsPath)
		r.writePlain("Run again with --relink to replace them.\n")
		return nil
	}

	r.logger.Info("starting sign-in")
	creds, err := r.login(ctx, cmd.String("server"), "", cmd.Bool("link"))
	if err != nil {
		return err
	}

	// the next connect picks up the fresh credentials
	r.client, r.creds = nil, creds

	r.writePlain("✓ credentials saved to %s\n", r.settingsPath)
	return nil
}

// AuthStatus reports where the tool is signed in, who the token belongs to
// and whether the server has an update pending.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	client, err := r.connect(ctx)
	if err != nil {
		return err
	}
	identity, err := client.Identity(ctx)
	if err != nil {
		return err
	}

	var user *plex.User
	if r.creds != nil {
		if u, aerr := plex.NewAccount(r.creds.Token, r.accountOptions()...).CurrentUser(ctx); aerr == nil {
			user = u
		} else {
			r.logger.Debug("token user lookup failed", "err", aerr)
		}
	}

	release, err := client.CheckForUpdate(ctx)
	if err != nil {
		r.logger.Warn("update check failed", "err", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"baseurl":  client.BaseURL(),
			"identity": identity,
			"user":     user,
			"release":  release,
		}, true)
	}

	r.writePlainHeader("Server Status")
	r.writePlain("Server: %s (%s)\n", identity.FriendlyName, identity.Platform)
	r.writePlain("Version: %s\n", identity.Version)
	r.writePlain("Address: %s\n", client.BaseURL())
	if user != nil {
		name := user.Username
		if name == "" {
			name = user.Title
		}
		r.writePlain("Signed in as: %s\n", name)
	}
	r.writePlain("Settings: %s\n", r.settingsPath)
	if release != nil {
		r.writePlain("Update: %s available (%s)\n", release.Version, release.State)
	} else {
		r.writePlain("Update: server is up to date\n")
	}
	return nil
}

// AuthLogout deletes the stored credentials after a confirmation.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	if _, err := credentials.Load(r.settingsPath); err != nil {
		if errors.Is(err, shared.ErrNoCredentials) {
			r.writePlain("Not signed in, nothing to do.\n")
			return nil
		}
		// an unreadable settings file is still worth deleting
		r.logger.Warn("settings file unreadable", "path", r.settingsPath, "err", err)
	}

	if err := r.confirm(fmt.Sprintf("Delete stored credentials at %s?", r.settingsPath), cmd.Bool("yes")); err != nil {
		return err
	}
	if err := credentials.Delete(r.settingsPath); err != nil {
		return err
	}

	r.client, r.creds = nil, nil
	r.writePlain("✓ signed out\n")
	return nil
}
