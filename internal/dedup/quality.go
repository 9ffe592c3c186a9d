// Package dedup decides which copies of a track survive deduplication. It
// ranks versions by audio quality, groups them by a configurable match key
// and produces a tagging plan the task engine applies to the server.
package dedup

import (
	"path"
	"strings"

	"github.com/plextool/plextool/internal/plex"
)

// codecRank orders audio codecs by quality, compatibility, open formats
// preferred. Higher is better.
var codecRank = map[string]int{
	"flac":            13, // lossless, open
	"alac":            12, // lossless, Apple's flac, less compatible
	"pcm":             11, // lossless, uncompressed
	"ape":             10, // lossless, tighter than flac but proprietary
	"dsd_lsbf_planar": 9,  // lossless
	"opus":            8,  // lossy, successor of vorbis, free
	"vorbis":          7,  // lossy, free, prefer over aac
	"aac":             6,  // lossy, licensed
	"ac3":             5,  // lossy, surround
	"mp3":             4,  // lossy, best compatibility
	"wmav2":           3,  // lossy, limited compatibility
	"mp2":             2,  // lossy, streaming oriented
	"cook":            1,  // obsolete RealPlayer format
}

// Rank maps a codec name to its quality rank. Unknown codecs rank 0 with
// ok=false so callers can surface them instead of failing the run.
func Rank(codec string) (int, bool) {
	if codec == "" {
		return 0, true
	}
	rank, known := codecRank[strings.ToLower(codec)]
	return rank, known
}

// TrackCodec returns the codec of the track's first media, falling back to
// the file extension when the server did not analyze the audio.
func TrackCodec(t *plex.Track) string {
	if len(t.Media) == 0 {
		return ""
	}
	media := t.Media[0]
	if media.AudioCodec != "" {
		return strings.ToLower(media.AudioCodec)
	}
	if len(media.Part) > 0 {
		if ext := path.Ext(media.Part[0].File); ext != "" {
			return strings.ToLower(ext[1:])
		}
	}
	return ""
}

// Quality is a track's comparable quality tuple. Codec rank dominates, then
// bitrate, then sample rate. Untagged breaks full ties in favor of tracks
// not currently carrying the duplicate marker, which keeps the surviving
// copy stable across runs.
type Quality struct {
	CodecRank  int
	Bitrate    int
	SampleRate int
	Untagged   bool
}

// TrackQuality computes the quality tuple. The returned codec is the name
// used for ranking so callers can report unranked ones.
func TrackQuality(t *plex.Track, tagged bool) (Quality, string) {
	codec := TrackCodec(t)
	rank, _ := Rank(codec)

	q := Quality{
		CodecRank:  rank,
		SampleRate: t.SampleRate(),
		Untagged:   !tagged,
	}
	if len(t.Media) > 0 {
		q.Bitrate = t.Media[0].Bitrate
	}
	return q, codec
}

// Compare orders two qualities: negative when q is worse than other,
// positive when better, zero when equal.
func (q Quality) Compare(other Quality) int {
	if c := cmp(q.CodecRank, other.CodecRank); c != 0 {
		return c
	}
	if c := cmp(q.Bitrate, other.Bitrate); c != 0 {
		return c
	}
	if c := cmp(q.SampleRate, other.SampleRate); c != 0 {
		return c
	}
	return cmp(boolInt(q.Untagged), boolInt(other.Untagged))
}

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
