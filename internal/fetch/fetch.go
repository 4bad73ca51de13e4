// Package fetch retrieves sheet payloads from the backend that authors them.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/oddiville/sheets/internal/sheet"
)

// maxPayloadBytes caps a fetched payload.
const maxPayloadBytes = 1 << 20

// ErrStatus is wrapped when the backend answers with a non-2xx status.
var ErrStatus = errors.New("unexpected status from payload backend")

// Fetcher returns the raw payload for a sheet. Implementations must be safe
// for concurrent use.
type Fetcher interface {
	FetchSheet(ctx context.Context, id string, kind sheet.Kind) ([]byte, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, id string, kind sheet.Kind) ([]byte, error)

func (f FetcherFunc) FetchSheet(ctx context.Context, id string, kind sheet.Kind) ([]byte, error) {
	return f(ctx, id, kind)
}

// Options configures an HTTP client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// HTTP fetches payloads with GET {BaseURL}/v1/sheets/{kind}/{id}. Requests
// are throttled by a token bucket, and concurrent fetches of the same sheet
// share one round-trip.
type HTTP struct {
	base    *url.URL
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	group   singleflight.Group
}

// NewHTTP creates an HTTP fetcher. A zero RPS disables throttling.
func NewHTTP(opts Options) (*HTTP, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing payload base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("payload base URL %q must be http or https", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	return &HTTP{
		base:    base,
		client:  &http.Client{Timeout: opts.Timeout},
		timeout: opts.Timeout,
		limiter: rate.NewLimiter(limit, opts.Burst),
	}, nil
}

// FetchSheet returns the payload for (id, kind). The shared round-trip does
// not inherit ctx's cancellation, so a caller that gives up does not fail the
// others waiting on the same sheet. It is bounded by the client timeout.
func (h *HTTP) FetchSheet(ctx context.Context, id string, kind sheet.Kind) ([]byte, error) {
	key := string(kind) + "/" + id
	ch := h.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
		defer cancel()
		return h.fetch(shared, id, kind)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("fetching %s: %w", key, ctx.Err())
	}
}

func (h *HTTP) fetch(ctx context.Context, id string, kind sheet.Kind) ([]byte, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for fetch slot: %w", err)
	}

	u := h.base.JoinPath("v1", "sheets", url.PathEscape(string(kind)), url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxPayloadBytes))
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, u.Path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", u.Path, err)
	}
	if len(body) > maxPayloadBytes {
		return nil, fmt.Errorf("payload for %s exceeds %d bytes", u.Path, maxPayloadBytes)
	}
	return body, nil
}
