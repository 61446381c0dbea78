// Package fetch retrieves pages from the proceedings site. Transport failures
// are retried with capped exponential backoff, HTTP status codes are passed on
// to the caller unchanged.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sethgrid/pester"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// NotFoundSentinel is the body the site serves with status 200 for resources
// that do not exist.
const NotFoundSentinel = "Resource Not Found"

var (
	// ErrResourceNotFound is not recoverable, the identifier or the URL
	// construction is broken.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrGaveUp is returned, when transport errors persist for MaxAttempts.
	ErrGaveUp         = errors.New("giving up")
	errInvalidRequest = errors.New("invalid request")
)

// NotFoundError is returned for a sentinel response.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("bad url %s: %v", e.URL, ErrResourceNotFound)
}

func (e *NotFoundError) Unwrap() error {
	return ErrResourceNotFound
}

// Doer abstracts https://pkg.go.dev/net/http#Client.Do.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Timer returns a channel that fires after a given duration; it allows to
// test backoff without sleeping.
type Timer interface {
	After(time.Duration) <-chan time.Time
}

type stdTimer struct{}

func (stdTimer) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Backoff is a capped exponential backoff: the sleep after the n-th
// consecutive failure is min(Cap, Base * 2^(n-1)).
type Backoff struct {
	Base time.Duration
	Cap  time.Duration
}

// DefaultBackoff starts at one second and caps at one minute.
var DefaultBackoff = Backoff{Base: time.Second, Cap: 60 * time.Second}

// Duration returns the sleep duration after n consecutive failures, n >= 1.
func (b Backoff) Duration(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := b.Base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= b.Cap || d <= 0 {
			return b.Cap
		}
	}
	if d > b.Cap {
		return b.Cap
	}
	return d
}

// Response carries status and body of a request. The body is only read for
// status 200.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher issues GET requests with a fixed user agent.
type Fetcher struct {
	Client    Doer
	UserAgent string
	Backoff   Backoff
	// MaxAttempts per request on transport errors, zero retries forever.
	MaxAttempts uint
	// Limiter is optional and throttles all requests.
	Limiter *rate.Limiter
	Timer   Timer
	Logger  logrus.FieldLogger
}

// NewClient returns a pester client doing exactly one attempt per call, as
// retries are handled by the Fetcher. A zero timeout disables the request
// timeout.
func NewClient(timeout time.Duration) *pester.Client {
	client := pester.New()
	client.Concurrency = 1
	client.MaxRetries = 1
	client.Backoff = func(int) time.Duration { return 0 }
	client.Timeout = timeout
	return client
}

// New returns a Fetcher with default backoff, unbounded retries and no
// request timeout.
func New(userAgent string) *Fetcher {
	return &Fetcher{
		Client:    NewClient(0),
		UserAgent: userAgent,
		Backoff:   DefaultBackoff,
	}
}

func (f *Fetcher) logger() logrus.FieldLogger {
	if f.Logger == nil {
		return logrus.StandardLogger()
	}
	return f.Logger
}

func (f *Fetcher) timer() Timer {
	if f.Timer == nil {
		return stdTimer{}
	}
	return f.Timer
}

func (f *Fetcher) backoff() Backoff {
	if f.Backoff.Base <= 0 {
		return DefaultBackoff
	}
	return f.Backoff
}

// Fetch retrieves a URL. It returns once a response has been received,
// regardless of its status code. A status 200 response with the not found
// sentinel body yields a NotFoundError.
func (f *Fetcher) Fetch(ctx context.Context, link string) (*Response, error) {
	var (
		resp     *Response
		failures int
		backoff  = f.backoff()
		log      = f.logger().WithField("url", link)
	)
	err := retry.Do(
		func() error {
			r, err := f.fetchOnce(ctx, link)
			if err != nil {
				failures++
				return err
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(f.MaxAttempts),
		retry.LastErrorOnly(true),
		retry.WithTimer(f.timer()),
		retry.DelayType(func(uint, error, *retry.Config) time.Duration {
			return backoff.Duration(failures)
		}),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, errInvalidRequest) && ctx.Err() == nil
		}),
		retry.OnRetry(func(_ uint, err error) {
			log.WithFields(logrus.Fields{
				"attempt": failures,
				"sleep":   backoff.Duration(failures),
			}).Warnf("caught %v, sleeping and retrying", err)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", link, ctxErr)
		}
		if errors.Is(err, errInvalidRequest) {
			return nil, fmt.Errorf("fetch %s: %w", link, err)
		}
		return nil, fmt.Errorf("fetch %s: %w after %d attempts: %w", link, ErrGaveUp, failures, err)
	}
	if resp.StatusCode == http.StatusOK && string(resp.Body) == NotFoundSentinel {
		return nil, &NotFoundError{URL: link}
	}
	return resp, nil
}

// fetchOnce performs a single request. Any returned error, except for
// malformed requests, is a transport error.
func (f *Fetcher) fetchOnce(ctx context.Context, link string) (*Response, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("no response")
	}
	defer resp.Body.Close()
	r := &Response{URL: link, StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return r, nil
	}
	if r.Body, err = io.ReadAll(resp.Body); err != nil {
		return nil, err
	}
	return r, nil
}
