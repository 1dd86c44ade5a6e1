package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"

	"github.com/rodrigooliver/interflow-sub001/pkg/models"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path with WAL mode
// and foreign keys enabled, and creates the schema.
func OpenSQLite(path string) (*SQLite, error) {
	var connStr string
	if path == MemoryPath {
		connStr = "file::memory:?_foreign_keys=on"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		connStr = fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == MemoryPath {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLite) Insert(ctx context.Context, orgID string, rec *models.InstallmentRecord) (string, error) {
	if orgID == "" {
		return "", ErrNoOrganization
	}

	extra, err := encodeExtra(rec.Extra)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, organization_id, description, amount, due_date,
			category, cashier, payment_method, account, extra,
			installment_number, total_installments, parent_transaction_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, orgID, rec.Description, rec.Amount.String(), rec.Date(),
		rec.Category, rec.Cashier, rec.PaymentMethod, rec.Account, extra,
		rec.InstallmentNumber, rec.TotalInstallments, nullString(rec.ParentTransactionID),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert transaction: %w", err)
	}
	return id, nil
}

func (s *SQLite) Update(ctx context.Context, orgID, id string, fields Fields) error {
	if orgID == "" {
		return ErrNoOrganization
	}
	if fields.empty() {
		_, err := s.Get(ctx, orgID, id)
		return err
	}

	var (
		sets []string
		args []any
	)
	if fields.ParentTransactionID != nil {
		sets = append(sets, "parent_transaction_id = ?")
		args = append(args, *fields.ParentTransactionID)
	}
	if fields.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *fields.Description)
	}
	if fields.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, fields.Amount.String())
	}
	if fields.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, fields.DueDate.Format(models.DateLayout))
	}
	args = append(args, id, orgID)

	query := "UPDATE transactions SET " + strings.Join(sets, ", ") + " WHERE id = ? AND organization_id = ?"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const selectColumns = `
	SELECT id, organization_id, description, amount, due_date,
		category, cashier, payment_method, account, extra,
		installment_number, total_installments, parent_transaction_id
	FROM transactions`

func (s *SQLite) Get(ctx context.Context, orgID, id string) (*models.InstallmentRecord, error) {
	if orgID == "" {
		return nil, ErrNoOrganization
	}

	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ? AND organization_id = ?", id, orgID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLite) List(ctx context.Context, orgID string, filter Filter) ([]models.InstallmentRecord, error) {
	if orgID == "" {
		return nil, ErrNoOrganization
	}

	where := []string{"organization_id = ?"}
	args := []any{orgID}
	if filter.ParentTransactionID != "" {
		where = append(where, "parent_transaction_id = ?")
		args = append(args, filter.ParentTransactionID)
	}
	if !filter.From.IsZero() {
		where = append(where, "due_date >= ?")
		args = append(args, filter.From.Format(models.DateLayout))
	}
	if !filter.To.IsZero() {
		where = append(where, "due_date <= ?")
		args = append(args, filter.To.Format(models.DateLayout))
	}

	query := selectColumns + " WHERE " + strings.Join(where, " AND ") +
		" ORDER BY due_date, installment_number, rowid"
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	out := []models.InstallmentRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return out, nil
}

func (s *SQLite) Delete(ctx context.Context, orgID, id string) error {
	if orgID == "" {
		return ErrNoOrganization
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ? AND organization_id = ?", id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*models.InstallmentRecord, error) {
	var (
		rec     models.InstallmentRecord
		amount  string
		dueDate string
		extra   string
		parent  sql.NullString
	)
	err := sc.Scan(
		&rec.ID, &rec.OrganizationID, &rec.Description, &amount, &dueDate,
		&rec.Category, &rec.Cashier, &rec.PaymentMethod, &rec.Account, &extra,
		&rec.InstallmentNumber, &rec.TotalInstallments, &parent,
	)
	if err != nil {
		return nil, err
	}

	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	if rec.DueDate, err = time.Parse(models.DateLayout, dueDate); err != nil {
		return nil, fmt.Errorf("bad due date %q: %w", dueDate, err)
	}
	if rec.Extra, err = decodeExtra(extra); err != nil {
		return nil, err
	}
	if parent.Valid {
		p := parent.String
		rec.ParentTransactionID = &p
	}
	return &rec, nil
}

func encodeExtra(extra map[string]any) (string, error) {
	if len(extra) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return "", fmt.Errorf("failed to encode extra fields: %w", err)
	}
	return string(b), nil
}

func decodeExtra(s string) (map[string]any, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var extra map[string]any
	if err := json.Unmarshal([]byte(s), &extra); err != nil {
		return nil, fmt.Errorf("failed to decode extra fields: %w", err)
	}
	return extra, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var _ Store = (*SQLite)(nil)
