package executors

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/rodrigooliver/interflow-sub001/pkg/installment"
	"github.com/rodrigooliver/interflow-sub001/pkg/models"
	"github.com/rodrigooliver/interflow-sub001/pkg/store"
)

var errBoom = errors.New("boom")

// flakyStore fails the n-th Insert (1-based) or, when failUpdate is set, the
// first Update.
type flakyStore struct {
	store.Store
	failInsert int
	failUpdate bool
	inserts    int
}

func (f *flakyStore) Insert(ctx context.Context, orgID string, rec *models.InstallmentRecord) (string, error) {
	f.inserts++
	if f.inserts == f.failInsert {
		return "", errBoom
	}
	return f.Store.Insert(ctx, orgID, rec)
}

func (f *flakyStore) Update(ctx context.Context, orgID, id string, fields store.Fields) error {
	if f.failUpdate {
		return errBoom
	}
	return f.Store.Update(ctx, orgID, id, fields)
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func laptopPlan(t *testing.T, count int) []models.InstallmentRecord {
	t.Helper()
	recs, err := installment.Plan(models.TransactionTemplate{
		Description:   "Laptop",
		Amount:        decimal.RequireFromString("400"),
		DueDate:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		PaymentMethod: "credit_card",
	}, count)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	return recs
}

func TestApplyLinksInstallmentsToFirst(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	e := New(testLogger(), st)

	stored, err := e.Apply(ctx, "org-1", laptopPlan(t, 3))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("Apply() stored %d records, want 3", len(stored))
	}

	parent := stored[0].ID
	for i, r := range stored {
		if r.ID == "" {
			t.Errorf("record %d has no id", i)
		}
		if r.Parent() != parent {
			t.Errorf("record %d parent = %q, want %q", i, r.Parent(), parent)
		}
		if r.OrganizationID != "org-1" {
			t.Errorf("record %d organization = %q", i, r.OrganizationID)
		}
	}

	listed, err := st.List(ctx, "org-1", store.Filter{ParentTransactionID: parent})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff(stored, listed); diff != "" {
		t.Errorf("stored records differ from the returned ones (-returned +stored):\n%s", diff)
	}
}

func TestApplySingleRecordHasNoParent(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{Store: store.NewMemory(), failUpdate: true}
	e := New(testLogger(), st)

	stored, err := e.Apply(ctx, "org-1", laptopPlan(t, 1))
	if err != nil {
		t.Fatalf("Apply() error = %v, a single record must not be updated", err)
	}
	if len(stored) != 1 || stored[0].ParentTransactionID != nil {
		t.Errorf("Apply() = %+v, want one record without parent", stored)
	}
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	tests := []struct {
		name       string
		failInsert int
		failUpdate bool
		wantStored int
		wantParent bool
	}{
		{name: "first insert", failInsert: 1, wantStored: 0},
		{name: "self link", failUpdate: true, wantStored: 1},
		{name: "second insert", failInsert: 2, wantStored: 1, wantParent: true},
		{name: "last insert", failInsert: 4, wantStored: 3, wantParent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mem := store.NewMemory()
			st := &flakyStore{Store: mem, failInsert: tt.failInsert, failUpdate: tt.failUpdate}
			e := New(testLogger(), st)

			stored, err := e.Apply(ctx, "org-1", laptopPlan(t, 4))
			if !errors.Is(err, errBoom) {
				t.Fatalf("Apply() error = %v, want errBoom", err)
			}
			var applyErr *ApplyError
			if !errors.As(err, &applyErr) {
				t.Fatalf("Apply() error %T is not an *ApplyError", err)
			}
			if applyErr.Persisted != tt.wantStored || applyErr.Total != 4 {
				t.Errorf("ApplyError = %d/%d, want %d/4", applyErr.Persisted, applyErr.Total, tt.wantStored)
			}
			if len(stored) != tt.wantStored {
				t.Fatalf("Apply() returned %d records, want %d", len(stored), tt.wantStored)
			}

			all, err := mem.List(ctx, "org-1", store.Filter{})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(all) != tt.wantStored {
				t.Errorf("store holds %d records, want %d", len(all), tt.wantStored)
			}
			if tt.wantStored > 0 && (stored[0].ParentTransactionID != nil) != tt.wantParent {
				t.Errorf("first record parent set = %v, want %v", stored[0].ParentTransactionID != nil, tt.wantParent)
			}
		})
	}
}

func TestApplyHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(testLogger(), store.NewMemory())
	stored, err := e.Apply(ctx, "org-1", laptopPlan(t, 3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Apply() error = %v, want context.Canceled", err)
	}
	if len(stored) != 1 {
		t.Errorf("Apply() stored %d records, want only the first", len(stored))
	}
}

func TestApplyEmpty(t *testing.T) {
	e := New(testLogger(), store.NewMemory())
	stored, err := e.Apply(context.Background(), "org-1", nil)
	if err != nil || stored != nil {
		t.Errorf("Apply(nil) = %v, %v, want nil, nil", stored, err)
	}
}

func TestPlanPreview(t *testing.T) {
	var buf bytes.Buffer
	e := New(testLogger(), store.NewMemory())
	e.Out = &buf

	if err := e.Plan(laptopPlan(t, 3)); err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"2024-01-31 | Laptop - Installment 1/3",
		"2024-02-29 | Laptop - Installment 2/3",
		"2024-03-31 | Laptop - Installment 3/3",
		"Plan: 3 installment(s) will be added, R$ 1200.00 in total, 2024-01-31 to 2024-03-31",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Plan() output missing %q:\n%s", want, out)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(laptopPlan(t, 2))
	if s.Count != 2 || s.Total.StringFixed(2) != "800.00" {
		t.Errorf("Summarize() = %d, %s, want 2, 800.00", s.Count, s.Total)
	}
	if got := s.Last.Format(models.DateLayout); got != "2024-02-29" {
		t.Errorf("Last = %s, want 2024-02-29", got)
	}

	empty := Summarize(nil)
	if empty.Count != 0 || !empty.Total.IsZero() {
		t.Errorf("Summarize(nil) = %+v", empty)
	}
}
