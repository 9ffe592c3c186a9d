package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/plextool/plextool/internal/dedup"
	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConfirmView
	ProgressView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	api          tasks.API
	engine       *tasks.DedupEngine
	fields       []dedup.MatchField
	width        int
	height       int
	playlistList list.Model
	playlists    []plex.Playlist
	trackList    list.Model
	selected     plex.Playlist
	tracks       []plex.Track
	plan         *tasks.DedupPlan
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	summary      *tasks.Summary
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model over the given API. fields selects how
// tracks are matched when the duplicate plan is computed.
func NewModel(ctx context.Context, api tasks.API, fields []dedup.MatchField) *Model {
	return &Model{
		ctx:    ctx,
		view:   PlaylistListView,
		api:    api,
		engine: tasks.NewDedupEngine(api),
		fields: fields,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by fetching the server's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.err = nil
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Audio Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case tracksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.err = nil
		m.tracks = msg.tracks
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", m.selected.Title)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil

	case planBuiltMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = TrackListView
			return m, nil
		}
		m.err = nil
		m.plan = msg.plan
		m.view = ConfirmView
		return m, nil

	case progressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case dedupDoneMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case ProgressView:
		return m.renderProgress()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				m.selected = pl.playlist
				return m, m.fetchTracks(pl.playlist.RatingKey)
			}
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.err = nil
		m.view = PlaylistListView
		return m, nil
	case "enter":
		return m, m.buildPlan()
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.view = TrackListView
		return m, nil
	case "y":
		m.view = ProgressView
		return m, m.startDedup()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PlaylistListView
		m.selected = plex.Playlist{}
		m.tracks = nil
		m.plan = nil
		m.summary = nil
		m.progress = tasks.ProgressUpdate{}
		m.err = nil
		return m, m.fetchPlaylists()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.api.Playlists(m.ctx)
		audio := make([]plex.Playlist, 0, len(playlists))
		for _, pl := range playlists {
			if pl.PlaylistType == "audio" {
				audio = append(audio, pl)
			}
		}
		return playlistsFetchedMsg{playlists: audio, err: err}
	}
}

func (m *Model) fetchTracks(ratingKey string) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.api.PlaylistItems(m.ctx, ratingKey)
		return tracksFetchedMsg{tracks: tracks, err: err}
	}
}

func (m *Model) buildPlan() tea.Cmd {
	return func() tea.Msg {
		// some server versions leave the content URI out of list responses
		playlist, err := m.api.Playlist(m.ctx, m.selected.RatingKey)
		if err != nil {
			return planBuiltMsg{err: err}
		}
		plan, err := m.engine.Plan(m.ctx, nil, *playlist, m.fields)
		return planBuiltMsg{plan: plan, err: err}
	}
}

func (m *Model) startDedup() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		summary, err := m.engine.Apply(m.ctx, m.progressChan, m.plan)
		m.summary = summary
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return dedupDoneMsg{summary: m.summary, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return dedupDoneMsg{summary: m.summary, err: m.err}
		}
		return progressMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	dedupKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "find duplicates"),
	)
	helpKeys := []key.Binding{dedupKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Remove duplicates from '%s'?", m.selected.Title))

	plan := m.plan.Plan
	info := fmt.Sprintf(
		"\nTracks: %d\nUnique: %d\nDuplicates to mark: %d\nStale marks to clear: %d\n",
		plan.Total, len(plan.Unique), len(plan.ToTag()), len(plan.ToUntag()),
	)
	if m.plan.Stripped > 0 {
		info += fmt.Sprintf("Stale filter exclusions: %d\n", m.plan.Stripped)
	}
	if len(plan.UnknownCodecs) > 0 {
		info += styles.warn.Render(fmt.Sprintf("Unranked codecs (treated as lowest quality): %s", strings.Join(plan.UnknownCodecs, ", "))) + "\n"
	}
	if !m.plan.Changed() {
		info += styles.help.Render("The playlist is already clean, applying changes nothing.") + "\n"
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderProgress() string {
	title := styles.title.Render("Removing Duplicates")

	var phase string
	switch m.progress.Phase {
	case tasks.TagTracks:
		phase = fmt.Sprintf("Updating marker moods (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.RewriteFilter:
		phase = "Rewriting the playlist filter..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.summary == nil {
		return styles.err.Render(fmt.Sprintf("Dedup failed: %v\n\nPress r to start over, q to quit", m.err))
	}

	title := styles.ok.Render("✓ Dedup Complete")
	if m.summary.Failed > 0 {
		title = styles.warn.Render("Dedup finished with failures")
	}
	info := fmt.Sprintf(
		"\nPlaylist: %s\nTag edits: %d applied, %d failed, %d skipped\n",
		m.plan.Playlist.Title, m.summary.Succeeded, m.summary.Failed, m.summary.Skipped,
	)

	var failed string
	if len(m.summary.Failures) > 0 {
		failed = fmt.Sprintf("\n%s", styles.warn.Render(fmt.Sprintf("Failed to update %d tracks:", len(m.summary.Failures))))
		for _, f := range m.summary.Failures {
			failed += fmt.Sprintf("\n  • %s: %v", f.Title, f.Err)
		}
		failed += "\n"
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n%s", title, info, failed, helpView)
}
