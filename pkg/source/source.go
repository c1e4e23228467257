// Package source downloads race analysis reports.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mpapenbr/racepace/log"
	"github.com/mpapenbr/racepace/pkg/model"
	"github.com/mpapenbr/racepace/pkg/utils/cache"
	"github.com/mpapenbr/racepace/pkg/utils/cache/loadercache"
)

const (
	DefaultBaseURL = "https://resources.motogp.com/files/results"
	DefaultTimeout = 10 * time.Second
	// reports are a few hundred kB
	DefaultMaxSize = 32 << 20
)

var (
	ErrNotFound = errors.New("report not found")
	ErrTooLarge = errors.New("report too large")
)

// Loader provides the raw bytes of a race analysis report.
type Loader interface {
	Load(ctx context.Context, key model.EventKey) ([]byte, error)
}

type (
	Fetcher struct {
		baseURL string
		timeout time.Duration
		maxSize int64
		client  *http.Client
		log     *log.Logger
	}
	FetcherOption func(f *Fetcher)
)

func WithBaseURL(u string) FetcherOption {
	return func(f *Fetcher) {
		f.baseURL = u
	}
}

// WithTimeout sets the timeout of each single download attempt.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxSize limits the accepted size of a report in bytes.
func WithMaxSize(n int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxSize = n
	}
}

func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = c
	}
}

func WithLogger(l *log.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.log = l
	}
}

func NewFetcher(opts ...FetcherOption) *Fetcher {
	ret := &Fetcher{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		maxSize: DefaultMaxSize,
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		log:     log.Default().Named("source"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// URLs returns the candidate locations of the report in the order they are
// tried.
func (f *Fetcher) URLs(key model.EventKey) []string {
	return []string{
		fmt.Sprintf("%s/%s/%s/MotoGP/RAC/Analysis.pdf", f.baseURL, key.Season, key.EventCode),
		fmt.Sprintf("%s/%s/MotoGP/%s/RAC/analysis.pdf", f.baseURL, key.Season, key.EventCode),
	}
}

// Load tries the candidate URLs in order and returns the first successful
// response body. If no candidate succeeds the error wraps ErrNotFound,
// unless a report was found but exceeded the size limit (ErrTooLarge).
func (f *Fetcher) Load(ctx context.Context, key model.EventKey) ([]byte, error) {
	ctx, span := otel.Tracer("github.com/mpapenbr/racepace/pkg/source").
		Start(ctx, "source.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("event", key.String()))

	var errs []error
	for _, u := range f.URLs(key) {
		data, err := f.get(ctx, u)
		if err == nil {
			f.log.Info("report downloaded",
				log.String("url", u), log.Int("bytes", len(data)))
			return data, nil
		}
		f.log.Warn("report download failed", log.String("url", u), log.ErrorField(err))
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	var err error
	if lo.ContainsBy(errs, func(e error) bool { return errors.Is(e, ErrTooLarge) }) {
		err = fmt.Errorf("%s: %w", key, errors.Join(errs...))
	} else {
		err = fmt.Errorf("%w: %s: %w", ErrNotFound, key, errors.Join(errs...))
	}
	span.RecordError(err)
	return nil, err
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxSize)
	}
	return data, nil
}

// Cached keeps downloaded reports for expiration. Failed downloads are not
// cached.
type Cached struct {
	c cache.Cache[model.EventKey, []byte]
}

func NewCached(l Loader, expiration time.Duration) *Cached {
	return &Cached{
		c: loadercache.New(
			loadercache.WithLoader[model.EventKey, []byte](
				func(ctx context.Context, key model.EventKey) (*[]byte, error) {
					data, err := l.Load(ctx, key)
					if err != nil {
						return nil, err
					}
					return &data, nil
				}),
			loadercache.WithExpiration[model.EventKey, []byte](expiration),
			loadercache.WithLogger[model.EventKey, []byte](log.Default().Named("source.cache")),
		),
	}
}

func (c *Cached) Load(ctx context.Context, key model.EventKey) ([]byte, error) {
	data, err := c.c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return *data, nil
}

func (c *Cached) Invalidate(ctx context.Context, key model.EventKey) {
	c.c.Invalidate(ctx, key)
}
