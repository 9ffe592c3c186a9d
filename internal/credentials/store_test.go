package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plextool/plextool/internal/shared"
)

func TestStore(t *testing.T) {
	t.Run("save and load round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "settings.json")
		want := &Credentials{BaseURL: "http://10.0.0.2:32400", Token: "tok-abc"}

		if err := Save(path, want); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected settings file to exist: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("expected 0600 permissions, got %o", perm)
		}

		got, err := Load(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.BaseURL != want.BaseURL || got.Token != want.Token {
			t.Errorf("round trip lost data: %+v", got)
		}
	})

	t.Run("file layout stays hand-editable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		if err := Save(path, &Credentials{BaseURL: "http://pms:32400", Token: "t"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		content := string(data)
		if !strings.Contains(content, `"baseurl"`) || !strings.Contains(content, `"token"`) {
			t.Errorf("expected flat baseurl/token keys, got %s", content)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "settings.json"))
		if !errors.Is(err, shared.ErrNoCredentials) {
			t.Fatalf("expected ErrNoCredentials, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		os.WriteFile(path, []byte("{not json"), 0o600)

		_, err := Load(path)
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("incomplete settings", func(t *testing.T) {
		tc := []struct {
			name string
			body string
		}{
			{"missing token", `{"baseurl": "http://pms:32400"}`},
			{"missing baseurl", `{"token": "tok"}`},
			{"empty object", `{}`},
		}

		for _, c := range tc {
			t.Run(c.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "settings.json")
				os.WriteFile(path, []byte(c.body), 0o600)

				if _, err := Load(path); !errors.Is(err, shared.ErrNoCredentials) {
					t.Fatalf("expected ErrNoCredentials, got %v", err)
				}
			})
		}
	})

	t.Run("delete", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		if err := Save(path, &Credentials{BaseURL: "http://pms:32400", Token: "t"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if err := Delete(path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Error("expected the settings file to be gone")
		}

		if err := Delete(path); err != nil {
			t.Errorf("expected deleting a missing file to be fine, got %v", err)
		}
	})
}
