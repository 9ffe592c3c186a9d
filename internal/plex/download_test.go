package plex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/plextool/plextool/internal/shared"
)

func TestDownloadPart(t *testing.T) {
	ctx := context.Background()
	content := strings.Repeat("x", 200*1024) // spans several copy chunks

	t.Run("streams the whole part", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/library/parts/401/0/file.mp3" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("download") != "1" {
				t.Error("expected download=1")
			}
			if r.Header.Get("Range") != "" {
				t.Errorf("did not expect a range header, got %s", r.Header.Get("Range"))
			}
			w.Write([]byte(content))
		}))

		var buf bytes.Buffer
		written, err := c.DownloadPart(ctx, "/library/parts/401/0/file.mp3", 0, &buf)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if written != int64(len(content)) {
			t.Errorf("expected %d bytes written, got %d", len(content), written)
		}
		if buf.String() != content {
			t.Error("downloaded content does not match")
		}
	})

	t.Run("resumes from an offset", func(t *testing.T) {
		offset := int64(64 * 1024)
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			want := fmt.Sprintf("bytes=%d-", offset)
			if r.Header.Get("Range") != want {
				t.Errorf("expected range %q, got %q", want, r.Header.Get("Range"))
			}
			w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, len(content)-1, len(content)))
			w.WriteHeader(http.StatusPartialContent)
			w.Write([]byte(content[offset:]))
		}))

		var buf bytes.Buffer
		written, err := c.DownloadPart(ctx, "/library/parts/401/0/file.mp3", offset, &buf)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if written != int64(len(content))-offset {
			t.Errorf("expected %d bytes written, got %d", int64(len(content))-offset, written)
		}
		if buf.String() != content[offset:] {
			t.Error("resumed content does not match the tail")
		}
	})

	t.Run("fails when the server ignores the range", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 200 with the full body instead of 206
			w.Write([]byte(content))
		}))

		var buf bytes.Buffer
		_, err := c.DownloadPart(ctx, "/library/parts/401/0/file.mp3", 1024, &buf)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("expected nothing written on a refused resume, got %d bytes", buf.Len())
		}
	})
}

func TestPartHead(t *testing.T) {
	content := "abcdefghijklmnopqrstuvwxyz"

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "bytes=0-9" {
			t.Errorf("expected range bytes=0-9, got %s", r.Header.Get("Range"))
		}
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte(content[:10]))
	}))

	head, err := c.PartHead(context.Background(), "/library/parts/401/0/file.mp3", 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(head) != "abcdefghij" {
		t.Errorf("expected the first 10 bytes, got %q", head)
	}
}
