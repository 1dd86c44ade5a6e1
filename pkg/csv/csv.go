package csv

import (
	"bytes"
	stdcsv "encoding/csv"
)

// Record is a row of an installment schedule export.
type Record interface {
	Date() string
	Memo() string
	Value() string
	Sequence() string
	Parent() string
}

type FilterFunc[T Record] func(T) bool

var header = []string{"Date", "Description", "Amount", "Installment", "Parent"}

// Create renders the records accepted by filter as CSV. A nil filter
// accepts everything.
func Create[T Record](records []T, filter FilterFunc[T]) []byte {
	var buf bytes.Buffer
	w := stdcsv.NewWriter(&buf)
	w.Write(header)
	for _, r := range records {
		if filter == nil || filter(r) {
			w.Write([]string{r.Date(), r.Memo(), r.Value(), r.Sequence(), r.Parent()})
		}
	}
	// Writes go to a bytes.Buffer and cannot fail.
	w.Flush()
	return buf.Bytes()
}

// Pointers adapts a slice of values for Create when the Record methods have
// pointer receivers.
func Pointers[T any](records []T) []*T {
	out := make([]*T, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out
}
