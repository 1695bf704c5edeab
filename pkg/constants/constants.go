package constants

import "time"

const (
	// DefaultBatchSize is the number of update documents sent per request.
	DefaultBatchSize = 1000
	// DefaultListLimit is the rows parameter used by List when none is given.
	DefaultListLimit = 100
	// DefaultSort orders List results newest first.
	DefaultSort = "timestamp_dt desc"
	// DefaultHTTPTimeout applies to the HTTP client the connection creates itself.
	DefaultHTTPTimeout = 30 * time.Second
	// MaxLoggedPayload caps how much of an update body ends up in the log.
	MaxLoggedPayload = 1000
)

// Solr request handler paths, relative to the collection URL.
const (
	UpdatePath = "/update"
	QueryPath  = "/query"
)

// Field names with a fixed meaning.
const (
	IDField      = "id"
	VersionField = "_version_"
)

// Atomic update operations understood by Solr.
const (
	OpSet         = "set"
	OpAdd         = "add"
	OpAddDistinct = "add-distinct"
	OpRemove      = "remove"
	OpInc         = "inc"
)

var (
	HTTPScheme       = "http"
	HTTPSecureScheme = "https"
)
