package models

import (
	"fmt"

	"github.com/ukwa/kevals.go/pkg/constants"
)

// Record is a tracking record as supplied by callers or returned by queries.
// Values are whatever encoding/json produces: strings, json.Number or float64,
// bools, nested maps and slices.
type Record map[string]any

// ID returns the identifier of the record and whether it is present.
func (r Record) ID() (any, bool) {
	id, ok := r[constants.IDField]
	return id, ok
}

// IDString formats the identifier for logs and errors.
func (r Record) IDString() string {
	id, ok := r.ID()
	if !ok {
		return ""
	}
	return fmt.Sprint(id)
}

// UpdateDocument is the Solr atomic update form of a Record: each field other
// than id maps to an operation such as {"set": value}.
type UpdateDocument map[string]any

// Op builds a single atomic update operation, e.g. Op("add-distinct", "crawled").
func Op(action string, value any) map[string]any {
	return map[string]any{action: value}
}

// Set overwrites the stored value of a field.
func Set(value any) map[string]any {
	return Op(constants.OpSet, value)
}

// Add appends to a multi-valued field.
func Add(value any) map[string]any {
	return Op(constants.OpAdd, value)
}

// AddDistinct appends to a multi-valued field unless the value is already present.
func AddDistinct(value any) map[string]any {
	return Op(constants.OpAddDistinct, value)
}

// Remove removes a value from a multi-valued field.
func Remove(value any) map[string]any {
	return Op(constants.OpRemove, value)
}

// Inc increments a numeric field.
func Inc(value any) map[string]any {
	return Op(constants.OpInc, value)
}
