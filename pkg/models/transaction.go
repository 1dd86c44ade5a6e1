package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used across plan files, CSV exports
// and the HTTP API.
const DateLayout = "2006-01-02"

// TransactionTemplate is the transaction a user fills in before it is split
// into installments. Everything except Description, Amount and DueDate is
// copied verbatim into each generated installment.
type TransactionTemplate struct {
	OrganizationID string          `json:"organization_id,omitempty"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        time.Time       `json:"due_date"`
	Category       string          `json:"category,omitempty"`
	Cashier        string          `json:"cashier,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	Account        string          `json:"account,omitempty"`
	Extra          map[string]any  `json:"extra,omitempty"`
}

// Clone returns a copy that shares no maps with t. Nested map[string]any and
// []any values in Extra, the shapes JSON decoding produces, are copied too;
// other reference types are still shared.
func (t TransactionTemplate) Clone() TransactionTemplate {
	c := t
	if t.Extra != nil {
		c.Extra = copyMap(t.Extra)
	}
	return c
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		if v == nil {
			return v
		}
		return copyMap(v)
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = copyValue(e)
		}
		return out
	}
	return v
}

// InstallmentRecord is one generated transaction of an installment plan.
// ParentTransactionID stays nil until the first installment has been stored
// and its id is known.
type InstallmentRecord struct {
	ID string `json:"id,omitempty"`
	TransactionTemplate
	InstallmentNumber   int     `json:"installment_number"`
	TotalInstallments   int     `json:"total_installments"`
	ParentTransactionID *string `json:"parent_transaction_id"`
}

// Date returns the due date formatted as YYYY-MM-DD.
func (r *InstallmentRecord) Date() string {
	return r.DueDate.Format(DateLayout)
}

// Memo returns the installment description.
func (r *InstallmentRecord) Memo() string {
	return r.Description
}

// Value returns the amount with two decimal places.
func (r *InstallmentRecord) Value() string {
	return r.Amount.StringFixed(2)
}

// Sequence returns the "n/total" position of the installment.
func (r *InstallmentRecord) Sequence() string {
	return fmt.Sprintf("%d/%d", r.InstallmentNumber, r.TotalInstallments)
}

// Parent returns the parent transaction id or an empty string.
func (r *InstallmentRecord) Parent() string {
	if r.ParentTransactionID == nil {
		return ""
	}
	return *r.ParentTransactionID
}
