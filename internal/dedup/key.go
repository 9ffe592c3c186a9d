package dedup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/shared"
)

// MatchField is one track attribute contributing to the duplicate match key.
type MatchField string

const (
	MatchGUID     MatchField = "guid"
	MatchTitle    MatchField = "title"
	MatchDuration MatchField = "duration"
)

// ParseMatchFields parses a comma-separated field list like "title,duration".
func ParseMatchFields(raw string) ([]MatchField, error) {
	var fields []MatchField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		switch f := MatchField(part); f {
		case MatchGUID, MatchTitle, MatchDuration:
			fields = append(fields, f)
		default:
			return nil, fmt.Errorf("%w: unknown match field %q (want guid, title or duration)", shared.ErrInvalidFlag, part)
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no match fields given", shared.ErrInvalidFlag)
	}
	return fields, nil
}

// Key builds the duplicate match key: the chosen attribute values
// concatenated with spaces stripped, lowercased. Tracks whose chosen
// attributes are all empty produce an empty key and are never grouped.
func Key(t *plex.Track, fields []MatchField) string {
	var b strings.Builder
	for _, f := range fields {
		switch f {
		case MatchGUID:
			b.WriteString(t.GUID)
		case MatchTitle:
			b.WriteString(t.Title)
		case MatchDuration:
			if t.Duration > 0 {
				b.WriteString(strconv.FormatInt(t.Duration, 10))
			}
		}
	}
	return strings.ToLower(strings.ReplaceAll(b.String(), " ", ""))
}
