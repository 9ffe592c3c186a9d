package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigDir returns the tool's configuration directory (~/.config/plextool on
// Linux), creating it if necessary.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config directory: %w", err)
	}
	dir := filepath.Join(base, "plextool")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return dir, nil
}

// DefaultSettingsPath returns the default location of the credentials file.
func DefaultSettingsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// DefaultConfigPath returns the default location of the TOML config file.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// forbidden on NTFS, so cleaned everywhere for portable download trees
const forbiddenPathChars = `<>/\:"|?*`

// CleanPathPart replaces characters that are illegal in a single path element
// and collapses the resulting double spaces. Path separators are removed too,
// so never pass a full path.
func CleanPathPart(part string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenPathChars, r) {
			return ' '
		}
		return r
	}, part)
	for strings.Contains(cleaned, "  ") {
		cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	}
	return strings.TrimSpace(cleaned)
}

// UniquePath strips the library location prefix from a server-side file path
// and cleans each remaining element, yielding a relative path that is unique
// within the section.
//
//	/data/music/Artist/Album/01 Song.flac -> Artist/Album/01 Song.flac
//
// Returns false when the file is under none of the locations.
func UniquePath(file string, locations []string) (string, bool) {
	// server paths are unix style regardless of the local OS
	file = strings.ReplaceAll(file, `\`, "/")
	lower := strings.ToLower(file)
	for _, loc := range locations {
		loc = strings.ReplaceAll(loc, `\`, "/")
		loc = strings.TrimRight(loc, "/") + "/"
		if !strings.HasPrefix(lower, strings.ToLower(loc)) {
			continue
		}
		rel := file[len(loc):]
		parts := strings.Split(rel, "/")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p == "" {
				continue
			}
			cleaned = append(cleaned, CleanPathPart(p))
		}
		return filepath.Join(cleaned...), true
	}
	return "", false
}
