package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/spechash"
	"github.com/nixlim/presetdeck/internal/validate"
)

type Mode string

const (
	ModeFixture Mode = "fixture"
	ModeLive    Mode = "live"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 250 * time.Millisecond
	defaultTimeout     = 30 * time.Second
	issueSummaryLimit  = 5
)

// Request is one chart run.
type Request struct {
	Mode            Mode
	Spec            contract.ChartSpec
	Fixture         string
	OrgID           string
	BypassCache     bool
	CacheTTLSeconds int
	RunID           string
}

// Response is a validated, normalized result.
type Response struct {
	Result      contract.ChartResult
	Hash        string
	Diagnostics []contract.Diagnostic
	Attempts    int
	Duration    time.Duration
}

// Client executes chart specs against the fixture table or the live backend.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	fixtures    FixtureSource
	signer      *TokenSigner
	logger      Logger
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
}

// Option configures a Client.
type Option func(*Client)

func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRetry sets the attempt budget and the base backoff delay for network
// failures on the live path.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if baseDelay >= 0 {
			c.baseDelay = baseDelay
		}
	}
}

func WithFixtures(f FixtureSource) Option {
	return func(c *Client) { c.fixtures = f }
}

func WithTokenSigner(s *TokenSigner) Option {
	return func(c *Client) { c.signer = s }
}

func WithLogger(l Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		fixtures:    NewFixtures(),
		logger:      NopLogger{},
		sleep:       sleepContext,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute hashes the spec, fetches a payload for it, then normalizes and
// validates the payload. Every failure is returned as *Error.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	start := c.now()
	resp, err := c.execute(ctx, req)

	out := Outcome{RunID: req.RunID, Mode: req.Mode, Err: err, Duration: c.now().Sub(start)}
	if resp != nil {
		resp.Duration = out.Duration
		out.Hash, out.Attempts = resp.Hash, resp.Attempts
	} else if te, ok := err.(*Error); ok {
		out.Attempts = te.Attempts
	}
	c.logger.LogOutcome(out)
	return resp, err
}

func (c *Client) execute(ctx context.Context, req Request) (*Response, error) {
	hash, err := spechash.Hash(req.Spec)
	if err != nil {
		return nil, &Error{Category: CategoryInvalidSpec, Message: "hashing spec", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, aborted(err, 0)
	}

	var (
		result   contract.ChartResult
		attempts = 1
	)
	switch req.Mode {
	case ModeFixture, "":
		result, err = c.fixtures.Load(ctx, req.Fixture, req.Spec)
	case ModeLive:
		result, attempts, err = c.fetchLive(ctx, req, hash)
	default:
		return nil, &Error{Category: CategoryInvalidSpec, Message: fmt.Sprintf("unknown transport mode %q", req.Mode)}
	}
	if err != nil {
		if te, ok := err.(*Error); ok && te.Attempts == 0 {
			te.Attempts = attempts
		}
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, aborted(err, attempts)
	}

	Normalize(&result)
	if issues := validate.Validate(result); len(issues) > 0 {
		return nil, &Error{
			Category: CategoryInvalidResult,
			Message:  "result failed validation: " + validate.Summarize(issues, issueSummaryLimit),
			Issues:   issues,
			Attempts: attempts,
		}
	}

	return &Response{
		Result:      result,
		Hash:        hash,
		Diagnostics: partialDiagnostics(result),
		Attempts:    attempts,
	}, nil
}

func (c *Client) backoff(retry int) time.Duration {
	return c.baseDelay * time.Duration(1<<retry)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
