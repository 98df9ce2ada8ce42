// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/rootscan/lib/clock"
)

// HTTPConfig configures an HTTP range-request source.
type HTTPConfig struct {
	// Client performs requests. Defaults to http.DefaultClient.
	Client *http.Client

	// Retries is the number of additional attempts after a transient
	// failure (network error, 429, or 5xx). Zero disables retries.
	Retries int

	// Backoff is the wait before the first retry; it doubles on each
	// subsequent retry. Defaults to 500ms.
	Backoff time.Duration

	// Clock drives retry waits. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives retry notices. Defaults to a discarding logger.
	Logger *slog.Logger
}

// HTTP serves bytes from a remote file with Range requests.
type HTTP struct {
	url     string
	client  *http.Client
	retries int
	backoff time.Duration
	clock   clock.Clock
	logger  *slog.Logger

	sizeMu    sync.Mutex
	size      int64
	sizeKnown bool
}

// NewHTTP returns a Source for url. No request is made until Size or
// Fetch is called.
func NewHTTP(url string, config HTTPConfig) (*HTTP, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("source: %q is not an http(s) URL", url)
	}
	if config.Retries < 0 {
		return nil, fmt.Errorf("source: negative retry count %d", config.Retries)
	}

	client := config.Client
	if client == nil {
		client = http.DefaultClient
	}
	backoff := config.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &HTTP{
		url:     url,
		client:  client,
		retries: config.Retries,
		backoff: backoff,
		clock:   clk,
		logger:  logger,
	}, nil
}

func (h *HTTP) Name() string { return h.url }

// Size returns the remote file length. It issues a HEAD request until
// one succeeds; only a successful result is remembered, so a cancelled
// or failed call does not affect later ones.
func (h *HTTP) Size(ctx context.Context) (int64, error) {
	h.sizeMu.Lock()
	defer h.sizeMu.Unlock()
	if h.sizeKnown {
		return h.size, nil
	}
	size, err := h.fetchSize(ctx)
	if err != nil {
		return 0, err
	}
	h.size, h.sizeKnown = size, true
	return size, nil
}

func (h *HTTP) fetchSize(ctx context.Context) (int64, error) {
	var size int64
	err := h.withRetry(ctx, "size", func() (bool, error) {
		request, err := http.NewRequestWithContext(ctx, http.MethodHead, h.url, nil)
		if err != nil {
			return false, err
		}
		response, err := h.client.Do(request)
		if err != nil {
			return true, err
		}
		response.Body.Close()
		if response.StatusCode != http.StatusOK {
			return retryableStatus(response.StatusCode), fmt.Errorf("HEAD returned %s", response.Status)
		}
		if response.ContentLength < 0 {
			return false, fmt.Errorf("HEAD response has no Content-Length")
		}
		size = response.ContentLength
		return false, nil
	})
	if err != nil {
		return 0, &Error{Op: "size", Name: h.url, Err: err}
	}
	return size, nil
}

func (h *HTTP) Fetch(ctx context.Context, offset, length int64) ([]byte, error) {
	size, err := h.Size(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkRange(h.url, size, offset, length); err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}

	var data []byte
	err = h.withRetry(ctx, "fetch", func() (bool, error) {
		chunk, retry, fetchErr := h.fetchRange(ctx, size, offset, length)
		data = chunk
		return retry, fetchErr
	})
	if err != nil {
		return nil, &Error{Op: "fetch", Name: h.url, Offset: offset, Length: length, Err: err}
	}
	return data, nil
}

func (h *HTTP) fetchRange(ctx context.Context, size, offset, length int64) ([]byte, bool, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, false, err
	}
	request.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-"+strconv.FormatInt(offset+length-1, 10))

	response, err := h.client.Do(request)
	if err != nil {
		return nil, true, err
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusPartialContent:
		if err := checkContentRange(response.Header.Get("Content-Range"), size, offset, length); err != nil {
			return nil, false, err
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(response.Body, data); err != nil {
			return nil, true, fmt.Errorf("reading range body: %w", err)
		}
		return data, false, nil
	case http.StatusOK:
		// Server ignored the Range header and sent the whole file.
		if _, err := io.CopyN(io.Discard, response.Body, offset); err != nil {
			return nil, true, fmt.Errorf("skipping to offset: %w", err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(response.Body, data); err != nil {
			return nil, true, fmt.Errorf("reading body: %w", err)
		}
		return data, false, nil
	default:
		return nil, retryableStatus(response.StatusCode), fmt.Errorf("GET returned %s", response.Status)
	}
}

// checkContentRange verifies that a 206 response carries exactly the
// requested bytes: "bytes <first>-<last>/<total>", total may be "*".
func checkContentRange(header string, size, offset, length int64) error {
	if header == "" {
		return fmt.Errorf("partial response has no Content-Range")
	}
	spec, found := strings.CutPrefix(header, "bytes ")
	span, total, hasTotal := strings.Cut(spec, "/")
	firstText, lastText, hasDash := strings.Cut(span, "-")
	if !found || !hasTotal || !hasDash {
		return fmt.Errorf("malformed Content-Range %q", header)
	}
	first, err := strconv.ParseInt(firstText, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed Content-Range %q: %w", header, err)
	}
	last, err := strconv.ParseInt(lastText, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed Content-Range %q: %w", header, err)
	}
	if first != offset || last != offset+length-1 {
		return fmt.Errorf("partial response range %q does not match requested bytes %d-%d", header, offset, offset+length-1)
	}
	if total != "*" && total != strconv.FormatInt(size, 10) {
		return fmt.Errorf("partial response range %q reports a total other than the file size %d", header, size)
	}
	return nil
}

// withRetry runs attempt until it succeeds, reports a permanent
// failure, or the retry budget is spent.
func (h *HTTP) withRetry(ctx context.Context, op string, attempt func() (retry bool, err error)) error {
	wait := h.backoff
	for try := 0; ; try++ {
		retry, err := attempt()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retry || try >= h.retries {
			return err
		}
		h.logger.Warn("retrying remote read",
			"url", h.url,
			"op", op,
			"attempt", try+1,
			"wait", wait,
			"error", err,
		)
		if err := clock.Sleep(ctx, h.clock, wait); err != nil {
			return err
		}
		wait *= 2
	}
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (h *HTTP) Close() error { return nil }
