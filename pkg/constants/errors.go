package constants

import "errors"

// Errors
var (
	ErrNoBaseURL        = errors.New("base url not set")
	ErrInvalidBaseURL   = errors.New("base url must be an absolute http or https url")
	ErrInvalidBatchSize = errors.New("batch size must be positive")
	ErrMissingID        = errors.New("missing identifier")
	ErrNotObject        = errors.New("line is not a JSON object")
	ErrInvalidResponse  = errors.New("invalid Solr response")
)
