// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles credential management
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage server credentials",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in to a Plex account and pick a server",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "relink",
						Usage: "Replace existing credentials",
					},
					&cli.BoolFlag{
						Name:  "link",
						Usage: "Sign in with a code at plex.tv/link instead of a password",
					},
					&cli.StringFlag{
						Name:  "server",
						Usage: "Pick the server with this name instead of asking",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the connected server and pending updates",
				Action: r.AuthStatus,
			},
			{
				Name:  "logout",
				Usage: "Delete the stored credentials",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand handles playlist listing and export
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Inspect and export playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List audio playlists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "Act as this home or shared user",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include video and photo playlists",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "export",
				Usage: "Write playlist tracks to an M3U or CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "playlist",
						Aliases:  []string{"p"},
						Usage:    "Playlist title or regular expression",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: m3u or csv",
						Value:   "m3u",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file path (single playlist only)",
					},
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "Act as this home or shared user",
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// dedupCommand handles duplicate detection on smart playlists
func dedupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dedup",
		Usage: "Mark duplicate tracks on smart playlists and exclude them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Playlist title or regular expression",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "match",
				Aliases: []string{"m"},
				Usage:   "Attributes that make two tracks the same song: guid or title,duration",
				Value:   "guid",
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Act as this home or shared user",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Apply without asking",
			},
		},
		Action: r.Dedup,
		Commands: []*cli.Command{
			{
				Name:  "cleanup",
				Usage: "Remove duplicate markers whose playlist no longer exists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "section",
						Aliases:  []string{"s"},
						Usage:    "Library section title",
						Required: true,
					},
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Clean without asking",
					},
				},
				Action: r.DedupCleanup,
			},
		},
	}
}

// deleteCommand handles bulk deletion of playlist items
func deleteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete every item of a playlist from the library, files included",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Playlist title or regular expression",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Act as this home or shared user",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip both confirmation prompts",
			},
		},
		Action: r.Delete,
	}
}

// downloadCommand handles bulk media downloads
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download a playlist's files to a local directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Playlist title or regular expression",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "dest",
				Aliases: []string{"d"},
				Usage:   "Destination directory (default: pick interactively)",
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Act as this home or shared user",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Download without asking",
			},
		},
		Action: r.Download,
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "List completed downloads from the ledger",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of entries, 0 for all",
						Value:   25,
					},
				},
				Action: r.DownloadHistory,
			},
		},
	}
}

// updateCommand handles the server update watcher
func updateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Check for a server update and restart the container to install it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "container",
				Usage: "Container hosting the server (default from config)",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Restart even while sessions are playing",
			},
		},
		Action: r.Update,
	}
}

// collectCommand handles folder-derived collections
func collectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "collect",
		Usage: "File every track into a collection named after its top-level folder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "section",
				Aliases:  []string{"s"},
				Usage:    "Library section title",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Run without asking",
			},
		},
		Action: r.Collect,
	}
}

// browseCommand returns the top-level TUI command for interactive dedup.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui"},
		Usage:   "Browse playlists and run dedup interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "match",
				Aliases: []string{"m"},
				Usage:   "Attributes that make two tracks the same song: guid or title,duration",
				Value:   "guid",
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Act as this home or shared user",
			},
		},
		Action: r.Browse,
	}
}
