package executors

import (
	"context"
	"fmt"

	"github.com/rodrigooliver/interflow-sub001/pkg/models"
	"github.com/rodrigooliver/interflow-sub001/pkg/store"
)

// ApplyError reports a plan that was only partly stored.
type ApplyError struct {
	Persisted int
	Total     int
	Err       error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("stored %d of %d installments: %v", e.Persisted, e.Total, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Apply stores a plan for orgID. The first installment is inserted, then
// pointed at itself as the parent of the plan, then the remaining
// installments are inserted one at a time pointing at it. A single record is
// stored as is. Apply stops at the first failure and returns the records
// that were stored so far together with an *ApplyError. Nothing is rolled
// back or retried.
func (e *Executor) Apply(ctx context.Context, orgID string, records []models.InstallmentRecord) ([]models.InstallmentRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	e.logger.Debug("applying plan", "organization_id", orgID, "installments", len(records))

	total := len(records)
	stored := make([]models.InstallmentRecord, 0, total)
	fail := func(err error) ([]models.InstallmentRecord, error) {
		e.logger.Error("plan partially stored", "organization_id", orgID, "stored", len(stored), "total", total, "err", err)
		return stored, &ApplyError{Persisted: len(stored), Total: total, Err: err}
	}

	first := records[0]
	first.ParentTransactionID = nil
	parentID, err := e.store.Insert(ctx, orgID, &first)
	if err != nil {
		return fail(fmt.Errorf("insert installment %s: %w", first.Sequence(), err))
	}
	first.ID = parentID
	first.OrganizationID = orgID

	if total > 1 {
		self := parentID
		if err := e.store.Update(ctx, orgID, parentID, store.Fields{ParentTransactionID: &self}); err != nil {
			stored = append(stored, first)
			return fail(fmt.Errorf("link installment %s to itself: %w", first.Sequence(), err))
		}
		first.ParentTransactionID = &self
	}
	stored = append(stored, first)

	for _, rec := range records[1:] {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		parent := parentID
		rec.ParentTransactionID = &parent
		id, err := e.store.Insert(ctx, orgID, &rec)
		if err != nil {
			return fail(fmt.Errorf("insert installment %s: %w", rec.Sequence(), err))
		}
		rec.ID = id
		rec.OrganizationID = orgID
		stored = append(stored, rec)
	}

	e.logger.Info("stored plan", "organization_id", orgID, "parent_transaction_id", parentID, "installments", total)
	return stored, nil
}
