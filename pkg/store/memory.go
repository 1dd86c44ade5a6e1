package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rodrigooliver/interflow-sub001/pkg/models"
)

// Memory is an in-memory Store, safe for concurrent use. Data is lost when
// the process exits.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*memoryRow
	seq     int
}

type memoryRow struct {
	seq int
	rec models.InstallmentRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*memoryRow)}
}

func (m *Memory) Insert(ctx context.Context, orgID string, rec *models.InstallmentRecord) (string, error) {
	if orgID == "" {
		return "", ErrNoOrganization
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	row := copyRecord(rec)
	row.ID = id
	row.OrganizationID = orgID

	m.seq++
	m.records[id] = &memoryRow{seq: m.seq, rec: row}
	return id, nil
}

func (m *Memory) Update(ctx context.Context, orgID, id string, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, err := m.lookup(orgID, id)
	if err != nil {
		return err
	}

	if fields.ParentTransactionID != nil {
		parent := *fields.ParentTransactionID
		row.rec.ParentTransactionID = &parent
	}
	if fields.Description != nil {
		row.rec.Description = *fields.Description
	}
	if fields.Amount != nil {
		row.rec.Amount = *fields.Amount
	}
	if fields.DueDate != nil {
		row.rec.DueDate = *fields.DueDate
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, orgID, id string) (*models.InstallmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, err := m.lookup(orgID, id)
	if err != nil {
		return nil, err
	}
	rec := copyRecord(&row.rec)
	return &rec, nil
}

func (m *Memory) List(ctx context.Context, orgID string, filter Filter) ([]models.InstallmentRecord, error) {
	if orgID == "" {
		return nil, ErrNoOrganization
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var rows []*memoryRow
	for _, row := range m.records {
		if row.rec.OrganizationID != orgID || !filter.matches(&row.rec) {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := &rows[i].rec, &rows[j].rec
		if da, db := a.Date(), b.Date(); da != db {
			return da < db
		}
		if a.InstallmentNumber != b.InstallmentNumber {
			return a.InstallmentNumber < b.InstallmentNumber
		}
		return rows[i].seq < rows[j].seq
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(rows) {
			return []models.InstallmentRecord{}, nil
		}
		rows = rows[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(rows) {
		rows = rows[:filter.Limit]
	}

	out := make([]models.InstallmentRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, copyRecord(&row.rec))
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, orgID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup(orgID, id); err != nil {
		return err
	}
	delete(m.records, id)
	for _, row := range m.records {
		if row.rec.Parent() == id {
			row.rec.ParentTransactionID = nil
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) lookup(orgID, id string) (*memoryRow, error) {
	if orgID == "" {
		return nil, ErrNoOrganization
	}
	row, ok := m.records[id]
	if !ok || row.rec.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	return row, nil
}

// copyRecord returns a copy that shares no pointers or maps with rec.
func copyRecord(rec *models.InstallmentRecord) models.InstallmentRecord {
	c := *rec
	c.TransactionTemplate = rec.TransactionTemplate.Clone()
	if rec.ParentTransactionID != nil {
		parent := *rec.ParentTransactionID
		c.ParentTransactionID = &parent
	}
	return c
}

var _ Store = (*Memory)(nil)
