package plex

import (
	"net/url"
	"strings"
)

// Playlist is a playlist as listed by the server. Content carries the filter
// URI for smart playlists and is only populated on single-playlist fetches
// and some list responses.
type Playlist struct {
	RatingKey    string `json:"ratingKey"`
	Key          string `json:"key"`
	GUID         string `json:"guid"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	PlaylistType string `json:"playlistType"`
	Smart        bool   `json:"smart"`
	Content      string `json:"content"`
	Duration     int64  `json:"duration"`
	LeafCount    int    `json:"leafCount"`
	AddedAt      int64  `json:"addedAt"`
}

// Track is a playable library item with its media metadata. Music tracks are
// the common case but video playlist items decode into the same shape.
type Track struct {
	RatingKey        string  `json:"ratingKey"`
	Key              string  `json:"key"`
	ParentRatingKey  string  `json:"parentRatingKey"`
	GUID             string  `json:"guid"`
	Title            string  `json:"title"`
	ParentTitle      string  `json:"parentTitle"`
	GrandparentTitle string  `json:"grandparentTitle"`
	Type             string  `json:"type"`
	Duration         int64   `json:"duration"`
	UserRating       float64 `json:"userRating"`
	ViewCount        int     `json:"viewCount"`
	LibrarySectionID int     `json:"librarySectionID"`
	Mood             []Tag   `json:"Mood"`
	Collection       []Tag   `json:"Collection"`
	Media            []Media `json:"Media"`
}

// HasMood reports whether the track carries the mood, ignoring case.
func (t Track) HasMood(name string) bool {
	for _, m := range t.Mood {
		if strings.EqualFold(m.Tag, name) {
			return true
		}
	}
	return false
}

// HasCollection reports whether the track belongs to the collection, ignoring case.
func (t Track) HasCollection(name string) bool {
	for _, c := range t.Collection {
		if strings.EqualFold(c.Tag, name) {
			return true
		}
	}
	return false
}

// FileSize sums the sizes of all media parts.
func (t Track) FileSize() int64 {
	var size int64
	for _, m := range t.Media {
		for _, p := range m.Part {
			size += p.Size
		}
	}
	return size
}

// Tag is a label attached to an item: mood, genre, collection.
type Tag struct {
	ID     int    `json:"id"`
	Filter string `json:"filter"`
	Tag    string `json:"tag"`
}

// Media is one encoding of an item.
type Media struct {
	ID            int    `json:"id"`
	Bitrate       int    `json:"bitrate"`
	AudioChannels int    `json:"audioChannels"`
	AudioCodec    string `json:"audioCodec"`
	Container     string `json:"container"`
	Part          []Part `json:"Part"`
}

// Part is one file of a media encoding.
type Part struct {
	ID        int      `json:"id"`
	Key       string   `json:"key"`
	Duration  int64    `json:"duration"`
	File      string   `json:"file"`
	Size      int64    `json:"size"`
	Container string   `json:"container"`
	Stream    []Stream `json:"Stream"`
}

// Stream is a single stream inside a part. StreamType 2 is audio.
type Stream struct {
	ID           int    `json:"id"`
	StreamType   int    `json:"streamType"`
	Codec        string `json:"codec"`
	Channels     int    `json:"channels"`
	SamplingRate int    `json:"samplingRate"`
	BitDepth     int    `json:"bitDepth"`
}

// SampleRate returns the sampling rate of the first audio stream, or 0 when
// stream details are absent from the response.
func (t Track) SampleRate() int {
	for _, m := range t.Media {
		for _, p := range m.Part {
			for _, s := range p.Stream {
				if s.StreamType == 2 {
					return s.SamplingRate
				}
			}
		}
	}
	return 0
}

// Section is a library section.
type Section struct {
	Key      string     `json:"key"`
	Title    string     `json:"title"`
	Type     string     `json:"type"`
	Agent    string     `json:"agent"`
	Location []Location `json:"Location"`
}

// Paths returns the section's folder paths.
func (s Section) Paths() []string {
	paths := make([]string, 0, len(s.Location))
	for _, l := range s.Location {
		paths = append(paths, l.Path)
	}
	return paths
}

// Location is a folder backing a section.
type Location struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
}

// FilterChoice is one selectable value of a library filter, e.g. a mood.
type FilterChoice struct {
	Key     string `json:"key"`
	FastKey string `json:"fastKey"`
	Title   string `json:"title"`
}

// TagID returns the tag id used in filter expressions. The key carries it
// directly; older servers only fill the fast key, so fall back to its query.
func (fc FilterChoice) TagID() string {
	if fc.Key != "" && !strings.Contains(fc.Key, "/") {
		return fc.Key
	}
	if _, query, ok := strings.Cut(fc.FastKey, "?"); ok {
		if values, err := url.ParseQuery(query); err == nil {
			for _, v := range values {
				if len(v) > 0 {
					return v[0]
				}
			}
		}
	}
	return fc.Key
}

// Identity is the server identity block returned at the API root.
type Identity struct {
	MachineIdentifier string `json:"machineIdentifier"`
	FriendlyName      string `json:"friendlyName"`
	Version           string `json:"version"`
	Platform          string `json:"platform"`
}

// Release describes a server update offered by the updater endpoint.
type Release struct {
	Key         string `json:"key"`
	Version     string `json:"version"`
	Added       string `json:"added"`
	Fixed       string `json:"fixed"`
	DownloadURL string `json:"downloadURL"`
	State       string `json:"state"`
}

// Session is an active playback session.
type Session struct {
	Title            string      `json:"title"`
	GrandparentTitle string      `json:"grandparentTitle"`
	Type             string      `json:"type"`
	User             SessionUser `json:"User"`
	Player           Player      `json:"Player"`
}

// SessionUser identifies who is playing a session.
type SessionUser struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Player identifies the device a session plays on.
type Player struct {
	Title   string `json:"title"`
	Product string `json:"product"`
	State   string `json:"state"`
}

// User is a plex.tv account user, returned by sign-in and user switching.
type User struct {
	ID        int    `json:"id"`
	UUID      string `json:"uuid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Title     string `json:"title"`
	AuthToken string `json:"authToken"`
}

// Pin is a plex.tv link code. AuthToken stays empty until someone enters
// the code at plex.tv/link.
type Pin struct {
	ID        int    `json:"id"`
	Code      string `json:"code"`
	AuthToken string `json:"authToken"`
	ExpiresIn int    `json:"expiresIn"`
}

// Resource is a device linked to a plex.tv account. Servers advertise
// "server" in Provides together with their reachable connections.
type Resource struct {
	Name             string       `json:"name"`
	Product          string       `json:"product"`
	ClientIdentifier string       `json:"clientIdentifier"`
	Provides         string       `json:"provides"`
	AccessToken      string       `json:"accessToken"`
	Owned            bool         `json:"owned"`
	Connections      []Connection `json:"connections"`
}

// IsServer reports whether the resource provides a media server.
func (r Resource) IsServer() bool {
	for _, p := range strings.Split(r.Provides, ",") {
		if strings.TrimSpace(p) == "server" {
			return true
		}
	}
	return false
}

// Connection is one advertised way to reach a resource.
type Connection struct {
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
	Port     int    `json:"port"`
	URI      string `json:"uri"`
	Local    bool   `json:"local"`
	Relay    bool   `json:"relay"`
}

// HomeUser is a managed or shared user of a Plex Home.
type HomeUser struct {
	ID        int    `json:"id"`
	UUID      string `json:"uuid"`
	Title     string `json:"title"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Admin     bool   `json:"admin"`
	Guest     bool   `json:"guest"`
	Protected bool   `json:"protected"`
}

// response envelopes, one per endpoint shape

type identityResponse struct {
	MediaContainer Identity `json:"MediaContainer"`
}

type playlistsResponse struct {
	MediaContainer struct {
		Size     int        `json:"size"`
		Metadata []Playlist `json:"Metadata"`
	} `json:"MediaContainer"`
}

type tracksResponse struct {
	MediaContainer struct {
		Size     int     `json:"size"`
		Metadata []Track `json:"Metadata"`
	} `json:"MediaContainer"`
}

type sectionsResponse struct {
	MediaContainer struct {
		Directory []Section `json:"Directory"`
	} `json:"MediaContainer"`
}

type filterChoicesResponse struct {
	MediaContainer struct {
		Directory []FilterChoice `json:"Directory"`
	} `json:"MediaContainer"`
}

type autocompleteResponse struct {
	MediaContainer struct {
		Directory []struct {
			ID  int    `json:"id"`
			Tag string `json:"tag"`
		} `json:"Directory"`
	} `json:"MediaContainer"`
}

type updaterResponse struct {
	MediaContainer struct {
		Size    int       `json:"size"`
		Release []Release `json:"Release"`
	} `json:"MediaContainer"`
}

type sessionsResponse struct {
	MediaContainer struct {
		Size     int       `json:"size"`
		Metadata []Session `json:"Metadata"`
	} `json:"MediaContainer"`
}

type homeUsersResponse struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Users []HomeUser `json:"users"`
}
