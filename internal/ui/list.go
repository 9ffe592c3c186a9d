package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/plextool/plextool/internal/plex"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [plex.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist plex.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Title }
func (i playlistItem) Title() string       { return i.playlist.Title }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.LeafCount)
	if i.playlist.Smart {
		desc = fmt.Sprintf("smart • %s", desc)
	}
	return desc
}

// trackItem wraps [plex.Track] to implement [list.Item].
type trackItem struct {
	track plex.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.GrandparentTitle
	if i.track.ParentTitle != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.ParentTitle)
	}
	if len(i.track.Media) > 0 {
		desc = fmt.Sprintf("%s • %s %dkbps", desc, i.track.Media[0].AudioCodec, i.track.Media[0].Bitrate)
	}
	return desc
}
