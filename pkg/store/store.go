// Package store persists installment records. Every operation is scoped to an
// organization: rows that belong to another organization are invisible.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rodrigooliver/interflow-sub001/pkg/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrNoOrganization = errors.New("organization id is required")
)

// Store is the data store behind the installment executor.
type Store interface {
	// Insert stores rec under orgID and returns the id it was given. The
	// record's own ID and OrganizationID are ignored.
	Insert(ctx context.Context, orgID string, rec *models.InstallmentRecord) (string, error)
	// Update changes the non-nil fields of a stored record.
	Update(ctx context.Context, orgID, id string, fields Fields) error
	Get(ctx context.Context, orgID, id string) (*models.InstallmentRecord, error)
	// List returns matching records ordered by due date, then installment
	// number, then insertion order.
	List(ctx context.Context, orgID string, filter Filter) ([]models.InstallmentRecord, error)
	Delete(ctx context.Context, orgID, id string) error
	Close() error
}

// Fields is a partial update. Nil fields are left untouched.
type Fields struct {
	ParentTransactionID *string
	Description         *string
	Amount              *decimal.Decimal
	DueDate             *time.Time
}

func (f Fields) empty() bool {
	return f.ParentTransactionID == nil && f.Description == nil && f.Amount == nil && f.DueDate == nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	ParentTransactionID string
	// From and To bound the due date, both inclusive, compared by calendar day.
	From, To time.Time
	Limit    int
	Offset   int
}

func (f Filter) matches(rec *models.InstallmentRecord) bool {
	if f.ParentTransactionID != "" && rec.Parent() != f.ParentTransactionID {
		return false
	}
	day := rec.Date()
	if !f.From.IsZero() && day < f.From.Format(models.DateLayout) {
		return false
	}
	if !f.To.IsZero() && day > f.To.Format(models.DateLayout) {
		return false
	}
	return true
}

// Open returns an in-memory Store for "memory" and a SQLite Store for any
// other path.
func Open(path string) (Store, error) {
	if path == "memory" {
		return NewMemory(), nil
	}
	return OpenSQLite(path)
}
