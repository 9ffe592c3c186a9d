// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist maintenance:
//  1. [PlaylistListView] : Browse the server's audio playlists
//  2. [TrackListView] : Preview a playlist's tracks
//  3. [ConfirmView] : Review the computed duplicate plan before applying
//  4. [ProgressView] : Monitor tag and filter updates in real time
//  5. [ResultView] : Display the run summary and per-track failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the DedupEngine, providing non-blocking status reporting during a run.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
