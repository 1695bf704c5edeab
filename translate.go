package kevals

import (
	"reflect"

	"github.com/ukwa/kevals.go/pkg/constants"
	"github.com/ukwa/kevals.go/pkg/models"
)

// IsReservedField reports whether a field must never be sent back to Solr.
// Replaying _version_ turns the update into an optimistic-concurrency check
// that fails with a conflict.
func IsReservedField(name string) bool {
	return name == constants.VersionField
}

// IsOperation reports whether a value already is an atomic update operation
// such as {"add-distinct": "x"}, i.e. a nested mapping of any map type.
func IsOperation(value any) bool {
	switch value.(type) {
	case nil:
		return false
	case map[string]any, models.Record, models.UpdateDocument:
		return true
	default:
		return reflect.TypeOf(value).Kind() == reflect.Map
	}
}

// TranslateRecord converts rec into an update document. With asUpdates, every
// plain value is wrapped as {"set": value}; operations are passed through.
func TranslateRecord(rec models.Record, asUpdates bool) (models.UpdateDocument, error) {
	id, ok := rec.ID()
	if !ok {
		return nil, &ValidationError{Record: rec}
	}

	doc := make(models.UpdateDocument, len(rec))
	doc[constants.IDField] = id
	for field, value := range rec {
		switch {
		case field == constants.IDField, IsReservedField(field):
			continue
		case asUpdates && !IsOperation(value):
			doc[field] = models.Set(value)
		default:
			doc[field] = value
		}
	}
	return doc, nil
}

// TranslateBatch converts all records, failing on the first one without an id.
func TranslateBatch(batch []models.Record, asUpdates bool) ([]models.UpdateDocument, error) {
	docs := make([]models.UpdateDocument, 0, len(batch))
	for _, rec := range batch {
		doc, err := TranslateRecord(rec, asUpdates)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
