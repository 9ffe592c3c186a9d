package plex

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/plextool/plextool/internal/shared"
)

const downloadChunkSize = 64 * 1024

// DownloadPart streams a media part into w, starting at offset. A non-zero
// offset sends a Range request and fails unless the server honors it, so a
// resume never appends bytes from the wrong position. Returns the number of
// bytes written.
func (c *Client) DownloadPart(ctx context.Context, key string, offset int64, w io.Writer) (int64, error) {
	var header http.Header
	if offset > 0 {
		header = http.Header{"Range": []string{fmt.Sprintf("bytes=%d-", offset)}}
	}

	res, err := c.raw(ctx, http.MethodGet, key+"?download=1", nil, header)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if offset > 0 && res.StatusCode != http.StatusPartialContent {
		io.Copy(io.Discard, res.Body)
		return 0, fmt.Errorf("%w: server ignored range request for %s", shared.ErrAPIRequest, key)
	}

	written, err := io.CopyBuffer(w, res.Body, make([]byte, downloadChunkSize))
	if err != nil {
		return written, fmt.Errorf("%w: streaming %s: %v", shared.ErrAPIRequest, key, err)
	}
	return written, nil
}

// PartHead fetches the first length bytes of a media part, used to decide
// whether a partial local file is a prefix of the remote one.
func (c *Client) PartHead(ctx context.Context, key string, length int64) ([]byte, error) {
	header := http.Header{"Range": []string{fmt.Sprintf("bytes=0-%d", length-1)}}
	res, err := c.raw(ctx, http.MethodGet, key+"?download=1", nil, header)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	head, err := io.ReadAll(io.LimitReader(res.Body, length))
	if err != nil {
		return nil, fmt.Errorf("%w: reading head of %s: %v", shared.ErrAPIRequest, key, err)
	}
	return head, nil
}
