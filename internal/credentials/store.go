// Package credentials persists the server connection settings and runs the
// interactive account sign-in that produces them.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/plextool/plextool/internal/shared"
)

// Credentials connect the tools to one media server. The on-disk layout is a
// flat JSON object so it stays hand-editable.
type Credentials struct {
	BaseURL string `json:"baseurl"`
	Token   string `json:"token"`
}

// Load reads credentials from path. A missing, empty or incomplete file
// returns [shared.ErrNoCredentials] so callers can fall through to the
// interactive sign-in.
func Load(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", shared.ErrNoCredentials, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid JSON: %v", shared.ErrInvalidCredentials, path, err)
	}
	if creds.BaseURL == "" || creds.Token == "" {
		return nil, fmt.Errorf("%w: %s is incomplete", shared.ErrNoCredentials, path)
	}
	return &creds, nil
}

// Save writes credentials to path with owner-only permissions. The write
// goes through a temp file in the same directory so a crash never leaves a
// half-written settings file behind.
func Save(path string, creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("restricting settings permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}

// Delete removes the settings file. Already gone is fine.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing settings file: %w", err)
	}
	return nil
}
