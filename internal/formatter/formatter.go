// package formatter exports playlist tracks to interchange formats (CSV, extended M3U)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/shared"
)

// Supported export formats.
const (
	FormatCSV = "csv"
	FormatM3U = "m3u"
)

// ExportCSV converts a track listing to CSV with columns: RatingKey, Title,
// Artist, Album, Duration, Codec, Bitrate, File. Duration is in seconds.
func ExportCSV(tracks []plex.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"RatingKey", "Title", "Artist", "Album", "Duration", "Codec", "Bitrate", "File"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		var codec, file string
		var bitrate int
		if len(track.Media) > 0 {
			codec = track.Media[0].AudioCodec
			bitrate = track.Media[0].Bitrate
			if len(track.Media[0].Part) > 0 {
				file = track.Media[0].Part[0].File
			}
		}
		record := []string{
			track.RatingKey,
			track.Title,
			track.GrandparentTitle,
			track.ParentTitle,
			strconv.FormatInt(track.Duration/1000, 10),
			codec,
			strconv.Itoa(bitrate),
			file,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportM3U converts a track listing to extended M3U. Each entry carries an
// EXTINF line with the duration in seconds and "Artist - Title" display text,
// followed by the server-side file path. Tracks without a file are left out,
// a player could not resolve them anyway.
func ExportM3U(playlist plex.Playlist, tracks []plex.Track) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("#EXTM3U\n")
	if playlist.Title != "" {
		buf.WriteString(fmt.Sprintf("#PLAYLIST:%s\n", playlist.Title))
	}

	for _, track := range tracks {
		file := ""
		for _, m := range track.Media {
			for _, p := range m.Part {
				if p.File != "" {
					file = p.File
					break
				}
			}
			if file != "" {
				break
			}
		}
		if file == "" {
			continue
		}

		display := track.Title
		if track.GrandparentTitle != "" {
			display = fmt.Sprintf("%s - %s", track.GrandparentTitle, track.Title)
		}
		buf.WriteString(fmt.Sprintf("#EXTINF:%d,%s\n", track.Duration/1000, display))
		buf.WriteString(file + "\n")
	}

	return buf.Bytes(), nil
}

// WriteExport renders the playlist's tracks in the requested format and
// writes the result to path, returning the path written.
//
// An empty path defaults to the cleaned playlist title plus the format's
// extension in the working directory.
func WriteExport(playlist plex.Playlist, tracks []plex.Track, format, path string) (string, error) {
	var data []byte
	var err error

	switch format {
	case FormatCSV:
		data, err = ExportCSV(tracks)
	case FormatM3U:
		data, err = ExportM3U(playlist, tracks)
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if path == "" {
		path = fmt.Sprintf("%s.%s", shared.CleanPathPart(playlist.Title), format)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}
