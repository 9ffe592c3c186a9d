package shared

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("writes to the provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain hello, got %q", buf.String())
		}
	})

	t.Run("child logger carries key-value pairs", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "playlist", "Road Trip")
		logger.Info("tagging")

		if !strings.Contains(buf.String(), "Road Trip") {
			t.Errorf("expected log output to contain playlist name, got %q", buf.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Errorf("expected unique ids, got %s twice", a)
	}
	if len(a) != 36 {
		t.Errorf("expected uuid format, got %q", a)
	}
}

func TestCleanPathPart(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain name untouched",
			in:   "01 Song.flac",
			want: "01 Song.flac",
		},
		{
			name: "forbidden characters become spaces",
			in:   `What? "A/B" <Live>`,
			want: "What A B Live",
		},
		{
			name: "double spaces collapse",
			in:   "a  **  b",
			want: "a b",
		},
		{
			name: "separators removed",
			in:   `..\..\etc`,
			want: ".. .. etc",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanPathPart(tt.in); got != tt.want {
				t.Errorf("CleanPathPart(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUniquePath(t *testing.T) {
	locations := []string{"/data/music", "/mnt/more music/", `C:\music`}

	tc := []struct {
		name   string
		file   string
		want   string
		wantOK bool
	}{
		{
			name:   "strips the section location",
			file:   "/data/music/Artist/Album/01 Song.flac",
			want:   "Artist/Album/01 Song.flac",
			wantOK: true,
		},
		{
			name:   "matches locations case-insensitively",
			file:   "/Data/Music/Artist/track.mp3",
			want:   "Artist/track.mp3",
			wantOK: true,
		},
		{
			name:   "second location with trailing slash",
			file:   "/mnt/more music/Band/song.ogg",
			want:   "Band/song.ogg",
			wantOK: true,
		},
		{
			name:   "cleans forbidden characters per element",
			file:   `/data/music/Artist/Who? Made Who/01.mp3`,
			want:   "Artist/Who Made Who/01.mp3",
			wantOK: true,
		},
		{
			name:   "backslashes treated as separators",
			file:   `C:\music\Artist\01.mp3`,
			want:   "Artist/01.mp3",
			wantOK: true,
		},
		{
			name:   "outside every location",
			file:   "/srv/other/file.mp3",
			wantOK: false,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := UniquePath(tt.file, locations)
			if ok != tt.wantOK {
				t.Fatalf("UniquePath(%q) ok = %v, want %v", tt.file, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("UniquePath(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}
