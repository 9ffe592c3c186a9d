package dedup

import (
	"testing"

	"github.com/plextool/plextool/internal/plex"
	tu "github.com/plextool/plextool/internal/testing"
)

func TestRank(t *testing.T) {
	t.Run("lossless beats lossy", func(t *testing.T) {
		flac, _ := Rank("flac")
		mp3, _ := Rank("mp3")
		if flac <= mp3 {
			t.Errorf("expected flac (%d) above mp3 (%d)", flac, mp3)
		}
	})

	t.Run("case-insensitive", func(t *testing.T) {
		upper, ok := Rank("FLAC")
		if !ok || upper != 13 {
			t.Errorf("expected FLAC to rank 13, got %d ok=%v", upper, ok)
		}
	})

	t.Run("unknown codecs rank zero", func(t *testing.T) {
		rank, ok := Rank("shorten")
		if ok {
			t.Error("expected unknown codec to report ok=false")
		}
		if rank != 0 {
			t.Errorf("expected rank 0, got %d", rank)
		}
	})

	t.Run("empty codec is fine", func(t *testing.T) {
		rank, ok := Rank("")
		if !ok || rank != 0 {
			t.Errorf("expected empty codec to rank 0 without complaint, got %d ok=%v", rank, ok)
		}
	})

	t.Run("full ordering", func(t *testing.T) {
		ordered := []string{"cook", "mp2", "wmav2", "mp3", "ac3", "aac", "vorbis", "opus", "dsd_lsbf_planar", "ape", "pcm", "alac", "flac"}
		last := 0
		for _, codec := range ordered {
			rank, ok := Rank(codec)
			if !ok {
				t.Fatalf("expected %s to be ranked", codec)
			}
			if rank <= last {
				t.Errorf("expected %s to rank above %d, got %d", codec, last, rank)
			}
			last = rank
		}
	})
}

func TestTrackCodec(t *testing.T) {
	tc := []struct {
		name  string
		track plex.Track
		want  string
	}{
		{
			name:  "from media",
			track: tu.AudioTrack("1", "Song", "guid://1", "flac", 1411),
			want:  "flac",
		},
		{
			name: "falls back to the file extension",
			track: plex.Track{Media: []plex.Media{{
				Part: []plex.Part{{File: "/data/music/song.OGG"}},
			}}},
			want: "ogg",
		},
		{
			name: "upper-case codec is normalized",
			track: plex.Track{Media: []plex.Media{{
				AudioCodec: "MP3",
				Part:       []plex.Part{{File: "/data/music/song.mp3"}},
			}}},
			want: "mp3",
		},
		{
			name:  "no media at all",
			track: plex.Track{},
			want:  "",
		},
		{
			name: "extension-less file",
			track: plex.Track{Media: []plex.Media{{
				Part: []plex.Part{{File: "/data/music/song"}},
			}}},
			want: "",
		},
	}

	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			if got := TrackCodec(&c.track); got != c.want {
				t.Errorf("expected %q, got %q", c.want, got)
			}
		})
	}
}

func TestQualityCompare(t *testing.T) {
	tc := []struct {
		name string
		a, b Quality
		want int
	}{
		{
			name: "codec dominates bitrate",
			a:    Quality{CodecRank: 13, Bitrate: 600},
			b:    Quality{CodecRank: 4, Bitrate: 320},
			want: 1,
		},
		{
			name: "bitrate breaks codec ties",
			a:    Quality{CodecRank: 4, Bitrate: 128},
			b:    Quality{CodecRank: 4, Bitrate: 320},
			want: -1,
		},
		{
			name: "sample rate breaks bitrate ties",
			a:    Quality{CodecRank: 13, Bitrate: 900, SampleRate: 96000},
			b:    Quality{CodecRank: 13, Bitrate: 900, SampleRate: 44100},
			want: 1,
		},
		{
			name: "untagged wins a full tie",
			a:    Quality{CodecRank: 4, Bitrate: 320, SampleRate: 44100, Untagged: true},
			b:    Quality{CodecRank: 4, Bitrate: 320, SampleRate: 44100, Untagged: false},
			want: 1,
		},
		{
			name: "identical",
			a:    Quality{CodecRank: 4, Bitrate: 320, Untagged: true},
			b:    Quality{CodecRank: 4, Bitrate: 320, Untagged: true},
			want: 0,
		},
	}

	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Compare(c.b); got != c.want {
				t.Errorf("expected %d, got %d", c.want, got)
			}
			if got := c.b.Compare(c.a); got != -c.want {
				t.Errorf("expected the comparison to be symmetric, got %d", got)
			}
		})
	}
}

func TestTrackQuality(t *testing.T) {
	track := tu.AudioTrack("1", "Song", "guid://1", "flac", 1411)
	track.Media[0].Part[0].Stream = []plex.Stream{{StreamType: 2, Codec: "flac", SamplingRate: 96000}}

	q, codec := TrackQuality(&track, false)
	if codec != "flac" {
		t.Errorf("expected codec flac, got %s", codec)
	}
	if q.CodecRank != 13 || q.Bitrate != 1411 || q.SampleRate != 96000 {
		t.Errorf("unexpected quality %+v", q)
	}
	if !q.Untagged {
		t.Error("expected an untagged track to carry the tie-break")
	}

	q, _ = TrackQuality(&track, true)
	if q.Untagged {
		t.Error("expected a tagged track to lose the tie-break")
	}
}
