package dedup

import (
	"sort"
	"strings"

	"github.com/plextool/plextool/internal/plex"
)

const markerPrefix = "Duplicate "

// Marker returns the marker mood name for a playlist, "Duplicate <title>".
func Marker(playlistTitle string) string {
	return markerPrefix + playlistTitle
}

// IsMarker reports whether a mood name is a duplicate marker, ignoring case.
func IsMarker(mood string) bool {
	return strings.HasPrefix(strings.ToLower(mood), strings.ToLower(markerPrefix))
}

// MarkerTitle returns the playlist title a marker mood belongs to.
func MarkerTitle(mood string) string {
	if !IsMarker(mood) {
		return ""
	}
	return mood[len(markerPrefix):]
}

// Candidate is one track considered for deduplication together with its
// precomputed quality and whether it currently carries the marker mood.
type Candidate struct {
	Track   *plex.Track
	Quality Quality
	Codec   string
	Tagged  bool
}

// NewCandidate ranks a track. tagged says whether it currently carries the
// marker mood, which feeds the stability tie-break.
func NewCandidate(t *plex.Track, tagged bool) Candidate {
	q, codec := TrackQuality(t, tagged)
	return Candidate{Track: t, Quality: q, Codec: codec, Tagged: tagged}
}

// Plan is the outcome of grouping: which tracks stay unique, which are
// duplicates, and what has to change on the server to get there.
type Plan struct {
	Marker        string
	Total         int
	Unique        []*Candidate
	Duplicates    []*Candidate
	Ungrouped     int      // tracks with an empty match key, kept unique
	UnknownCodecs []string // codecs without a quality rank, reported once each
}

// ToTag lists duplicates that still need the marker mood.
func (p *Plan) ToTag() []*Candidate {
	var out []*Candidate
	for _, c := range p.Duplicates {
		if !c.Tagged {
			out = append(out, c)
		}
	}
	return out
}

// ToUntag lists unique tracks that wrongly carry the marker mood, e.g. a
// former duplicate whose better copy was deleted since the last run.
func (p *Plan) ToUntag() []*Candidate {
	var out []*Candidate
	for _, c := range p.Unique {
		if c.Tagged {
			out = append(out, c)
		}
	}
	return out
}

// Changes counts the tag edits the plan needs. Zero means the playlist is
// already converged and applying is a no-op.
func (p *Plan) Changes() int {
	return len(p.ToTag()) + len(p.ToUntag())
}

// BuildPlan groups candidates by match key and picks the best quality copy
// of each group as the unique one. Groups keep first-seen order so repeated
// runs produce identical plans.
func BuildPlan(marker string, fields []MatchField, candidates []Candidate) *Plan {
	plan := &Plan{Marker: marker, Total: len(candidates)}

	groups := make(map[string][]*Candidate, len(candidates))
	var order []string
	unknown := make(map[string]bool)

	for i := range candidates {
		c := &candidates[i]
		if _, known := Rank(c.Codec); !known && !unknown[c.Codec] {
			unknown[c.Codec] = true
			plan.UnknownCodecs = append(plan.UnknownCodecs, c.Codec)
		}

		key := Key(c.Track, fields)
		if key == "" {
			plan.Unique = append(plan.Unique, c)
			plan.Ungrouped++
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			plan.Unique = append(plan.Unique, group[0])
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Quality.Compare(group[j].Quality) > 0
		})
		plan.Unique = append(plan.Unique, group[0])
		plan.Duplicates = append(plan.Duplicates, group[1:]...)
	}
	return plan
}
