// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/plextool/plextool/internal/plex"
)

// MockAPI is a func-field test double for the server API surface the task
// engines run against. Unset fields return zero values.
type MockAPI struct {
	PlaylistsFn            func(ctx context.Context) ([]plex.Playlist, error)
	PlaylistFn             func(ctx context.Context, ratingKey string) (*plex.Playlist, error)
	PlaylistItemsFn        func(ctx context.Context, ratingKey string) ([]plex.Track, error)
	UpdatePlaylistFilterFn func(ctx context.Context, ratingKey string, filter *plex.SmartFilter) error
	SectionByIDFn          func(ctx context.Context, id int) (*plex.Section, error)
	SectionMoodsFn         func(ctx context.Context, sectionKey string) ([]plex.FilterChoice, error)
	SearchTracksFn         func(ctx context.Context, sectionKey, query string) ([]plex.Track, error)
	AddMoodFn              func(ctx context.Context, track *plex.Track, mood string) (bool, error)
	RemoveMoodFn           func(ctx context.Context, track *plex.Track, mood string) (bool, error)
	AddCollectionFn        func(ctx context.Context, track *plex.Track, collection string) (bool, error)
	DeleteItemFn           func(ctx context.Context, ratingKey string) error
	CheckForUpdateFn       func(ctx context.Context) (*plex.Release, error)
	SessionsFn             func(ctx context.Context) ([]plex.Session, error)
	DownloadPartFn         func(ctx context.Context, key string, offset int64, w io.Writer) (int64, error)
	PartHeadFn             func(ctx context.Context, key string, length int64) ([]byte, error)
}

func (m *MockAPI) Playlists(ctx context.Context) ([]plex.Playlist, error) {
	if m.PlaylistsFn != nil {
		return m.PlaylistsFn(ctx)
	}
	return nil, nil
}

func (m *MockAPI) Playlist(ctx context.Context, ratingKey string) (*plex.Playlist, error) {
	if m.PlaylistFn != nil {
		return m.PlaylistFn(ctx, ratingKey)
	}
	return nil, nil
}

func (m *MockAPI) PlaylistItems(ctx context.Context, ratingKey string) ([]plex.Track, error) {
	if m.PlaylistItemsFn != nil {
		return m.PlaylistItemsFn(ctx, ratingKey)
	}
	return nil, nil
}

func (m *MockAPI) UpdatePlaylistFilter(ctx context.Context, ratingKey string, filter *plex.SmartFilter) error {
	if m.UpdatePlaylistFilterFn != nil {
		return m.UpdatePlaylistFilterFn(ctx, ratingKey, filter)
	}
	return nil
}

func (m *MockAPI) SectionByID(ctx context.Context, id int) (*plex.Section, error) {
	if m.SectionByIDFn != nil {
		return m.SectionByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *MockAPI) SectionMoods(ctx context.Context, sectionKey string) ([]plex.FilterChoice, error) {
	if m.SectionMoodsFn != nil {
		return m.SectionMoodsFn(ctx, sectionKey)
	}
	return nil, nil
}

func (m *MockAPI) SearchTracks(ctx context.Context, sectionKey, query string) ([]plex.Track, error) {
	if m.SearchTracksFn != nil {
		return m.SearchTracksFn(ctx, sectionKey, query)
	}
	return nil, nil
}

func (m *MockAPI) AddMood(ctx context.Context, track *plex.Track, mood string) (bool, error) {
	if m.AddMoodFn != nil {
		return m.AddMoodFn(ctx, track, mood)
	}
	return false, nil
}

func (m *MockAPI) RemoveMood(ctx context.Context, track *plex.Track, mood string) (bool, error) {
	if m.RemoveMoodFn != nil {
		return m.RemoveMoodFn(ctx, track, mood)
	}
	return false, nil
}

func (m *MockAPI) AddCollection(ctx context.Context, track *plex.Track, collection string) (bool, error) {
	if m.AddCollectionFn != nil {
		return m.AddCollectionFn(ctx, track, collection)
	}
	return false, nil
}

func (m *MockAPI) DeleteItem(ctx context.Context, ratingKey string) error {
	if m.DeleteItemFn != nil {
		return m.DeleteItemFn(ctx, ratingKey)
	}
	return nil
}

func (m *MockAPI) CheckForUpdate(ctx context.Context) (*plex.Release, error) {
	if m.CheckForUpdateFn != nil {
		return m.CheckForUpdateFn(ctx)
	}
	return nil, nil
}

func (m *MockAPI) Sessions(ctx context.Context) ([]plex.Session, error) {
	if m.SessionsFn != nil {
		return m.SessionsFn(ctx)
	}
	return nil, nil
}

func (m *MockAPI) DownloadPart(ctx context.Context, key string, offset int64, w io.Writer) (int64, error) {
	if m.DownloadPartFn != nil {
		return m.DownloadPartFn(ctx, key, offset, w)
	}
	return 0, nil
}

func (m *MockAPI) PartHead(ctx context.Context, key string, length int64) ([]byte, error) {
	if m.PartHeadFn != nil {
		return m.PartHeadFn(ctx, key, length)
	}
	return nil, nil
}

// ScriptPrompter is a scripted prompter for flows that would otherwise ask
// on the terminal. Each call pops the next queued answer and records the
// message it was asked.
type ScriptPrompter struct {
	Inputs    []string
	Passwords []string
	Confirms  []bool
	Selects   []int
	Asked     []string
}

func (p *ScriptPrompter) Input(message, _ string) (string, error) {
	p.Asked = append(p.Asked, message)
	if len(p.Inputs) == 0 {
		return "", errors.New("no scripted input left for: " + message)
	}
	answer := p.Inputs[0]
	p.Inputs = p.Inputs[1:]
	return answer, nil
}

func (p *ScriptPrompter) Password(message string) (string, error) {
	p.Asked = append(p.Asked, message)
	if len(p.Passwords) == 0 {
		return "", errors.New("no scripted password left for: " + message)
	}
	answer := p.Passwords[0]
	p.Passwords = p.Passwords[1:]
	return answer, nil
}

func (p *ScriptPrompter) Confirm(message string, _ bool) (bool, error) {
	p.Asked = append(p.Asked, message)
	if len(p.Confirms) == 0 {
		return false, errors.New("no scripted confirmation left for: " + message)
	}
	answer := p.Confirms[0]
	p.Confirms = p.Confirms[1:]
	return answer, nil
}

func (p *ScriptPrompter) Select(message string, _ []string) (int, error) {
	p.Asked = append(p.Asked, message)
	if len(p.Selects) == 0 {
		return 0, errors.New("no scripted selection left for: " + message)
	}
	answer := p.Selects[0]
	p.Selects = p.Selects[1:]
	return answer, nil
}

// AudioTrack builds a track with a single media part, enough for quality
// ranking, matching and download tests.
func AudioTrack(ratingKey, title, guid, codec string, bitrate int) plex.Track {
	return plex.Track{
		RatingKey:        ratingKey,
		GUID:             guid,
		Title:            title,
		LibrarySectionID: 5,
		Media: []plex.Media{{
			ID:         1,
			Bitrate:    bitrate,
			AudioCodec: codec,
			Part: []plex.Part{{
				ID:   1,
				Key:  "/library/parts/" + ratingKey + "/0/file." + codec,
				File: "/data/music/" + title + "." + codec,
				Size: int64(bitrate) * 1000,
			}},
		}},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustWriteFile writes a fixture file, creating parent directories.
func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
