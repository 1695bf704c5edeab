package models

import "fmt"

// NoneValue selects records where the filter field is not set at all.
const NoneValue = "_NONE_"

// QueryFilter restricts List to records whose Field equals Value.
type QueryFilter struct {
	Field string
	Value string
}

// NewFilter is a shorthand for &QueryFilter{Field: field, Value: value}.
func NewFilter(field, value string) *QueryFilter {
	return &QueryFilter{Field: field, Value: value}
}

// MatchesAbsent reports whether the filter asks for records lacking the field.
func (f *QueryFilter) MatchesAbsent() bool {
	return f.Value == "" || f.Value == NoneValue
}

// Clause renders the filter as a Lucene query clause.
func (f *QueryFilter) Clause() string {
	if f.MatchesAbsent() {
		return fmt.Sprintf("-%s:[* TO *]", f.Field)
	}
	return fmt.Sprintf("%s:%s", f.Field, f.Value)
}
