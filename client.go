package kevals

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ukwa/kevals.go/pkg/connection"
	"github.com/ukwa/kevals.go/pkg/constants"
)

// Client reads and writes tracking records in a Solr collection.
// Its configuration is fixed at construction; a Client performs no
// background work and holds no state between calls.
type Client struct {
	conn      connection.Connection
	baseURL   string
	batchSize int
	asUpdates bool
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

type options struct {
	batchSize  int
	asUpdates  bool
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     zerolog.Logger
	conn       connection.Connection
}

// Option configures a Client.
type Option func(*options)

// WithBatchSize sets how many records are sent per update request.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithAsUpdates controls whether plain field values are wrapped as "set"
// operations. When disabled, records are sent as they are, minus _version_.
func WithAsUpdates(enabled bool) Option {
	return func(o *options) {
		o.asUpdates = enabled
	}
}

// WithHTTPClient overrides the HTTP client used for all requests.
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) {
		o.httpClient = h
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBatchRate throttles update requests to limit batches per second.
func WithBatchRate(limit rate.Limit, burst int) Option {
	return func(o *options) {
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithConnection replaces the HTTP transport entirely.
func WithConnection(conn connection.Connection) Option {
	return func(o *options) {
		o.conn = conn
	}
}

// New creates a Client for the Solr collection at baseURL,
// e.g. "http://localhost:8983/solr/tracking".
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constants.ErrInvalidBaseURL, err)
	}
	if (u.Scheme != constants.HTTPScheme && u.Scheme != constants.HTTPSecureScheme) || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidBaseURL, baseURL)
	}

	o := options{
		batchSize: constants.DefaultBatchSize,
		asUpdates: true,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.batchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, o.batchSize)
	}

	conn := o.conn
	if conn == nil {
		conn = connection.NewHTTPConnection(connection.NewConnectionParams{
			BaseURL:    baseURL,
			HTTPClient: httpClientFor(o.httpClient, o.timeout),
			Logger:     o.logger,
		})
	}

	return &Client{
		conn:      conn,
		baseURL:   strings.TrimRight(baseURL, "/"),
		batchSize: o.batchSize,
		asUpdates: o.asUpdates,
		limiter:   o.limiter,
		logger:    o.logger,
	}, nil
}

func httpClientFor(h *http.Client, timeout time.Duration) *http.Client {
	if h == nil {
		if timeout <= 0 {
			return nil
		}
		return &http.Client{Timeout: timeout}
	}
	if timeout > 0 {
		c := *h
		c.Timeout = timeout
		return &c
	}
	return h
}

// BaseURL returns the collection URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BatchSize returns the maximum number of records per update request.
func (c *Client) BatchSize() int {
	return c.batchSize
}
