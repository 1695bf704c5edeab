package models

// RecordIterator is a pull-based sequence of records.
//
// Next advances to the next record and reports whether there is one. Record
// returns the current record and is only valid after Next returned true. Err
// reports the error that stopped iteration, if any.
type RecordIterator interface {
	Next() bool
	Record() Record
	Err() error
}

// SliceIterator iterates over an in-memory slice of records.
type SliceIterator struct {
	records []Record
	pos     int
}

func NewSliceIterator(records []Record) *SliceIterator {
	return &SliceIterator{records: records, pos: -1}
}

func (it *SliceIterator) Next() bool {
	if it.pos+1 >= len(it.records) {
		it.pos = len(it.records)
		return false
	}
	it.pos++
	return true
}

func (it *SliceIterator) Record() Record {
	if it.pos < 0 || it.pos >= len(it.records) {
		return nil
	}
	return it.records[it.pos]
}

func (it *SliceIterator) Err() error {
	return nil
}
