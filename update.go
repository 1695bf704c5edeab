package kevals

import (
	"context"
	"errors"

	"github.com/ukwa/kevals.go/pkg/constants"
	"github.com/ukwa/kevals.go/pkg/models"
)

// Update applies the same single-field operation to every id, e.g. adding a
// value to a multi-valued field. An empty action means add-distinct.
func (c *Client) Update(ctx context.Context, ids []string, field string, value any, action string) (ImportStats, error) {
	if field == "" {
		return ImportStats{}, errors.New("update: field name is required")
	}
	if action == "" {
		action = constants.OpAddDistinct
	}
	return c.ImportFrom(ctx, newFieldUpdates(ids, field, value, action))
}

// fieldUpdates generates {id, field: {action: value}} for each id on demand.
type fieldUpdates struct {
	ids    []string
	field  string
	value  any
	action string
	pos    int
}

func newFieldUpdates(ids []string, field string, value any, action string) *fieldUpdates {
	return &fieldUpdates{ids: ids, field: field, value: value, action: action, pos: -1}
}

func (u *fieldUpdates) Next() bool {
	if u.pos+1 >= len(u.ids) {
		u.pos = len(u.ids)
		return false
	}
	u.pos++
	return true
}

func (u *fieldUpdates) Record() models.Record {
	if u.pos < 0 || u.pos >= len(u.ids) {
		return nil
	}
	return models.Record{
		constants.IDField: u.ids[u.pos],
		u.field:           models.Op(u.action, u.value),
	}
}

func (u *fieldUpdates) Err() error {
	return nil
}
