package connection

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

// Connection is the transport the tracking client talks to Solr through.
// Both methods return the raw response body of a 200 response and an
// *UpstreamError for any other status.
type Connection interface {
	// PostJSON encodes body as JSON and POSTs it to path with the given query string.
	PostJSON(ctx context.Context, path string, query url.Values, body any) ([]byte, error)
	// PostForm POSTs form as application/x-www-form-urlencoded to path.
	PostForm(ctx context.Context, path string, form url.Values) ([]byte, error)
}

type NewConnectionParams struct {
	// BaseURL is the collection URL, e.g. http://localhost:8983/solr/tracking
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}
