package store

// schema creates the tables on open. Amounts are decimal strings, due dates
// are YYYY-MM-DD and extra is a JSON object.
const schema = `
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL,
    description TEXT NOT NULL,
    amount TEXT NOT NULL,
    due_date TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    cashier TEXT NOT NULL DEFAULT '',
    payment_method TEXT NOT NULL DEFAULT '',
    account TEXT NOT NULL DEFAULT '',
    extra TEXT NOT NULL DEFAULT '{}',
    installment_number INTEGER NOT NULL DEFAULT 1,
    total_installments INTEGER NOT NULL DEFAULT 1,
    parent_transaction_id TEXT REFERENCES transactions(id) ON DELETE SET NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_org_due
    ON transactions(organization_id, due_date);

CREATE INDEX IF NOT EXISTS idx_transactions_parent
    ON transactions(parent_transaction_id);
`
