// Package contrib provides tools built on top of the kevals client.
//
// Everything under contrib is outside the compatibility guarantees of the
// core package and may change without following semantic versioning.
//
// [github.com/ukwa/kevals.go/contrib/kevalsctl] is a command line tool for
// importing line-delimited JSON into a tracking collection and for listing,
// fetching and updating records.
package contrib
