// The [kevals] package stores and queries tracking records in a Solr collection
// used as a lightweight key-value tracking database.
//
// # Writing records
//
// A record is a map of field names to values with a mandatory "id" field.
// [Client.ImportItems], [Client.ImportFrom] and [Client.ImportJSONL] send records
// to the collection's update handler in batches, turning every plain value into a
// Solr atomic "set" operation so that fields not mentioned in a record keep their
// stored values. A value that already is a map, such as {"add-distinct": "x"}, is
// sent unchanged. The internal _version_ field is never sent.
//
// Updates are posted with softCommit=true: they become visible to queries
// quickly but are not guaranteed durable until Solr's next hard commit.
//
// Use [Client.Update] to apply one operation to a single field of many records.
//
// # Reading records
//
// [Client.List] returns records matching an optional [models.QueryFilter], and
// [Client.Get] fetches one record by id, returning nil when there is no match.
//
// # Errors
//
// Nothing is retried. A response other than HTTP 200 is returned as an
// [UpstreamError]; records without an id as a [ValidationError]; undecodable
// JSONL input as a [ParseError].
//
// The command line tool in [github.com/ukwa/kevals.go/contrib/kevalsctl] resolves
// the collection URL from the environment and wraps these operations.
package kevals
