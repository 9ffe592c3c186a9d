package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/tasks"
)

var (
	_ tea.Msg = playlistsFetchedMsg{}
	_ tea.Msg = tracksFetchedMsg{}
	_ tea.Msg = planBuiltMsg{}
	_ tea.Msg = progressMsg{}
	_ tea.Msg = dedupDoneMsg{}
)

// playlistsFetchedMsg carries the server's audio playlists into the model.
type playlistsFetchedMsg struct {
	playlists []plex.Playlist
	err       error
}

// tracksFetchedMsg carries the selected playlist's items into the model.
type tracksFetchedMsg struct {
	tracks []plex.Track
	err    error
}

// planBuiltMsg carries the computed duplicate plan for the confirm view.
type planBuiltMsg struct {
	plan *tasks.DedupPlan
	err  error
}

// progressMsg is one engine update relayed from the progress channel.
type progressMsg tasks.ProgressUpdate

// dedupDoneMsg signals that the apply run finished, successfully or not.
type dedupDoneMsg struct {
	summary *tasks.Summary
	err     error
}
