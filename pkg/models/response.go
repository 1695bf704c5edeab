package models

// QueryResponse is the part of a Solr /query response the client reads.
type QueryResponse struct {
	NumFound int64
	Docs     []Record
}
