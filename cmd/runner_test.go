package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plextool/plextool/internal/plex"
	"github.com/plextool/plextool/internal/prompt"
	"github.com/plextool/plextool/internal/shared"
	"github.com/plextool/plextool/internal/tasks"
	tu "github.com/plextool/plextool/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			prompter := &tu.ScriptPrompter{}

			runner := NewRunner(RunnerOpts{
				Config:       config,
				ConfigPath:   "/test/path/config.toml",
				SettingsPath: "/test/path/settings.json",
				Logger:       logger,
				Output:       output,
				Prompter:     prompter,
				Restarter:    tasks.DockerRestarter{},
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.settingsPath != "/test/path/settings.json" {
				t.Errorf("expected settingsPath to be set, got %s", runner.settingsPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.prompter != prompter {
				t.Error("expected prompter to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil prompter uses the terminal", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Prompter: nil,
			})

			if _, ok := runner.prompter.(*prompt.Survey); !ok {
				t.Errorf("expected survey prompter by default, got %T", runner.prompter)
			}
		})

		t.Run("with nil restarter uses docker", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Restarter: nil,
			})

			if _, ok := runner.restarter.(tasks.DockerRestarter); !ok {
				t.Errorf("expected docker restarter by default, got %T", runner.restarter)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		names := make(map[string]bool, len(commands))
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
				continue
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"auth", "playlists", "dedup", "delete", "download", "update", "collect", "browse"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("confirm", func(t *testing.T) {
		t.Run("yes flag skips the prompt", func(t *testing.T) {
			prompter := &tu.ScriptPrompter{}
			runner := NewRunner(RunnerOpts{Prompter: prompter, Output: &bytes.Buffer{}})

			if err := runner.confirm("proceed?", true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(prompter.Asked) != 0 {
				t.Errorf("expected no prompt, got %v", prompter.Asked)
			}
		})

		t.Run("accepted answer continues", func(t *testing.T) {
			prompter := &tu.ScriptPrompter{Confirms: []bool{true}}
			runner := NewRunner(RunnerOpts{Prompter: prompter, Output: &bytes.Buffer{}})

			if err := runner.confirm("proceed?", false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("declined answer aborts", func(t *testing.T) {
			prompter := &tu.ScriptPrompter{Confirms: []bool{false}}
			runner := NewRunner(RunnerOpts{Prompter: prompter, Output: &bytes.Buffer{}})

			err := runner.confirm("proceed?", false)
			if !errors.Is(err, shared.ErrAborted) {
				t.Fatalf("expected ErrAborted, got %v", err)
			}
		})
	})

	t.Run("confirmDelete", func(t *testing.T) {
		t.Run("yes flag skips both prompts", func(t *testing.T) {
			prompter := &tu.ScriptPrompter{}
			runner := NewRunner(RunnerOpts{Prompter: prompter, Output: &bytes.Buffer{}})

			if err := runner.confirmDelete("12 tracks", true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(prompter.Asked) != 0 {
				t.Errorf("expected no prompt, got %v", prompter.Asked)
			}
		})

		t.Run("accepts after both prompts", func(t *testing.T) {
			prompter := &tu.ScriptPrompter{Confirms: []bool{true}, Inputs: []string{"YES"}}
			runner := NewRunner(RunnerOpts{Prompter: prompter, Output: &bytes.Buffer{}})

			if err := runner.confirmDelete("12 tracks", false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(prompter.Asked) != 2 {
				t.Errorf("expected two prompts, got %d", len(prompter.Asked))
			}
		})

		t.Run("declining the first prompt aborts", func(t *testing.T) {
			prompter := &tu.ScriptPrompter{Confirms: []bool{false}}
			runner := NewRunner(RunnerOpts{Prompter: prompter, Output: &bytes.Buffer{}})

			err := runner.confirmDelete("12 tracks", false)
			if !errors.Is(err, shared.ErrAborted) {
				t.Fatalf("expected ErrAborted, got %v", err)
			}
		})

		t.Run("demands the literal YES", func(t *testing.T) {
			prompter := &tu.ScriptPrompter{Confirms: []bool{true}, Inputs: []string{"yes"}}
			runner := NewRunner(RunnerOpts{Prompter: prompter, Output: &bytes.Buffer{}})

			err := runner.confirmDelete("12 tracks", false)
			if !errors.Is(err, shared.ErrAborted) {
				t.Fatalf("expected ErrAborted for a lowercase answer, got %v", err)
			}
		})
	})

	t.Run("connect", func(t *testing.T) {
		identityBody := `{"MediaContainer":{"machineIdentifier":"m1","friendlyName":"Media","version":"1.41.0"}}`

		t.Run("uses environment credentials", func(t *testing.T) {
			t.Setenv("PLEXTOOL_BASEURL", "http://localhost:32400")
			t.Setenv("PLEXTOOL_TOKEN", "env-token")

			rt := tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(identityBody)),
			}, nil)
			runner := NewRunner(RunnerOpts{
				Output:        &bytes.Buffer{},
				ClientOptions: []plex.Option{plex.WithHTTPClient(&http.Client{Transport: rt})},
			})

			client, err := runner.connect(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if client.BaseURL() != "http://localhost:32400" {
				t.Errorf("expected a client for the env base url, got %s", client.BaseURL())
			}
			if runner.creds == nil || runner.creds.Token != "env-token" {
				t.Error("expected env credentials on the runner")
			}
		})

		t.Run("returns the injected client untouched", func(t *testing.T) {
			client, err := plex.New("http://localhost:32400", "token")
			if err != nil {
				t.Fatalf("failed to build client: %v", err)
			}
			runner := NewRunner(RunnerOpts{Client: client, Output: &bytes.Buffer{}})

			got, err := runner.connect(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != client {
				t.Error("expected the injected client back")
			}
		})

		t.Run("surfaces an unreachable server", func(t *testing.T) {
			t.Setenv("PLEXTOOL_BASEURL", "http://localhost:32400")
			t.Setenv("PLEXTOOL_TOKEN", "env-token")

			rt := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
			runner := NewRunner(RunnerOpts{
				Output:        &bytes.Buffer{},
				ClientOptions: []plex.Option{plex.WithHTTPClient(&http.Client{Transport: rt})},
			})

			if _, err := runner.connect(context.Background()); !errors.Is(err, shared.ErrServerUnreachable) {
				t.Fatalf("expected ErrServerUnreachable, got %v", err)
			}
		})
	})

	t.Run("pickDestination", func(t *testing.T) {
		t.Run("flag wins", func(t *testing.T) {
			prompter := &tu.ScriptPrompter{}
			runner := NewRunner(RunnerOpts{Prompter: prompter, Output: &bytes.Buffer{}})

			dest, err := runner.pickDestination("/mnt/usb")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if dest != "/mnt/usb" {
				t.Errorf("expected /mnt/usb, got %s", dest)
			}
			if len(prompter.Asked) != 0 {
				t.Errorf("expected no prompt, got %v", prompter.Asked)
			}
		})

		t.Run("configured directory wins without a flag", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Downloads.Directory = "/srv/music"
			runner := NewRunner(RunnerOpts{Config: config, Prompter: &tu.ScriptPrompter{}, Output: &bytes.Buffer{}})

			dest, err := runner.pickDestination("")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if dest != "/srv/music" {
				t.Errorf("expected the configured directory, got %s", dest)
			}
		})

		t.Run("prompts when nothing is configured", func(t *testing.T) {
			home, err := os.UserHomeDir()
			if err != nil {
				t.Skipf("no home directory: %v", err)
			}

			prompter := &tu.ScriptPrompter{Selects: []int{0}}
			runner := NewRunner(RunnerOpts{Prompter: prompter, Output: &bytes.Buffer{}})

			dest, err := runner.pickDestination("")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if dest != filepath.Join(home, "Downloads") {
				t.Errorf("expected the Downloads folder, got %s", dest)
			}
		})

		t.Run("cancelling the prompt aborts", func(t *testing.T) {
			// an exhausted script makes Select fail like a ctrl-c would
			prompter := &tu.ScriptPrompter{}
			runner := NewRunner(RunnerOpts{Prompter: prompter, Output: &bytes.Buffer{}})

			if _, err := runner.pickDestination(""); !errors.Is(err, shared.ErrAborted) {
				t.Fatalf("expected ErrAborted, got %v", err)
			}
		})
	})

	t.Run("openLedger", func(t *testing.T) {
		t.Run("opens and migrates the ledger", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Downloads.LedgerPath = filepath.Join(t.TempDir(), "ledger", "downloads.db")
			runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})

			ledger, cleanup, err := runner.openLedger()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer cleanup()

			if ledger == nil {
				t.Fatal("expected a ledger")
			}
			if _, err := ledger.History(5); err != nil {
				t.Errorf("expected a usable ledger, got %v", err)
			}
		})

		t.Run("reports an unusable path", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Downloads.LedgerPath = "/dev/null/downloads.db"
			runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})

			ledger, cleanup, err := runner.openLedger()
			defer cleanup()

			if err == nil {
				t.Fatal("expected an error for a path under /dev/null")
			}
			if ledger != nil {
				t.Error("expected no ledger on failure")
			}
		})
	})
}

func TestLoadOrCreateConfig(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("creates the template on first run", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		config := loadOrCreateConfig(logger, path)

		tu.AssertFileExists(t, path)
		if config == nil {
			t.Fatal("expected a config")
		}
		if config.Client.Product != "plextool" {
			t.Errorf("expected the template product, got %q", config.Client.Product)
		}
	})

	t.Run("loads an existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		tu.MustWriteFile(t, path, "[client]\nproduct = \"custom\"\n")

		config := loadOrCreateConfig(logger, path)

		if config.Client.Product != "custom" {
			t.Errorf("expected the file's product, got %q", config.Client.Product)
		}
	})

	t.Run("falls back to defaults on a broken file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		tu.MustWriteFile(t, path, "not toml [")

		config := loadOrCreateConfig(logger, path)

		if config == nil {
			t.Fatal("expected a fallback config")
		}
		if config.Client.Product != "plextool" {
			t.Errorf("expected default product, got %q", config.Client.Product)
		}
	})

	t.Run("falls back when the path cannot be created", func(t *testing.T) {
		config := loadOrCreateConfig(logger, "/dev/null/config.toml")

		if config == nil {
			t.Fatal("expected a fallback config")
		}
	})
}

func TestRenderTable(t *testing.T) {
	t.Run("renders headers and rows", func(t *testing.T) {
		out := renderTable([]string{"Title", "Tracks"}, [][]string{{"Road Trip", "420"}}, 2)

		for _, want := range []string{"Title", "Tracks", "Road Trip", "420"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("renders an empty table", func(t *testing.T) {
		out := renderTable([]string{"Title"}, nil)

		if !strings.Contains(out, "Title") {
			t.Errorf("expected the header, got:\n%s", out)
		}
	})
}

func TestFormatDestination(t *testing.T) {
	t.Run("includes free space when known", func(t *testing.T) {
		got := formatDestination(shared.Destination{Path: "/mnt/usb", Free: 2_000_000_000})

		if !strings.Contains(got, "/mnt/usb") || !strings.Contains(got, "free") {
			t.Errorf("expected path and free space, got %q", got)
		}
	})

	t.Run("bare path without figures", func(t *testing.T) {
		if got := formatDestination(shared.Destination{Path: "/mnt/usb"}); got != "/mnt/usb" {
			t.Errorf("expected the bare path, got %q", got)
		}
	})
}
