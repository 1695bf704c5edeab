package kevals

import (
	"fmt"

	"github.com/ukwa/kevals.go/pkg/connection"
	"github.com/ukwa/kevals.go/pkg/constants"
	"github.com/ukwa/kevals.go/pkg/jsonl"
	"github.com/ukwa/kevals.go/pkg/models"
)

// Configuration errors returned by New before any request is made.
var (
	ErrNoBaseURL        = constants.ErrNoBaseURL
	ErrInvalidBatchSize = constants.ErrInvalidBatchSize
)

// ErrMissingID is wrapped by every ValidationError.
var ErrMissingID = constants.ErrMissingID

// UpstreamError is returned when Solr answers with anything but HTTP 200.
type UpstreamError = connection.UpstreamError

// ParseError is returned when a line of JSONL input is not a JSON object.
type ParseError = jsonl.ParseError

// ValidationError reports a record that cannot be turned into an update.
type ValidationError struct {
	Record models.Record
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: every update needs an %q field, got %v", constants.ErrMissingID, constants.IDField, map[string]any(e.Record))
}

func (e *ValidationError) Unwrap() error {
	return constants.ErrMissingID
}
