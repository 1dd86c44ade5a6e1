package models

// Manifest represents the structure of a YAML installment plan file.
type Manifest struct {
	Organization string      `yaml:"organization"`
	Transactions []PlanEntry `yaml:"transactions"`
}

// PlanEntry is a single transaction template in a plan file. Dates and
// amounts are kept as strings so parse errors can point at the entry.
type PlanEntry struct {
	Description   string         `yaml:"description"`
	Amount        string         `yaml:"amount"`
	DueDate       string         `yaml:"due_date"`
	Installments  int            `yaml:"installments"`
	Category      string         `yaml:"category"`
	Cashier       string         `yaml:"cashier"`
	PaymentMethod string         `yaml:"payment_method"`
	Account       string         `yaml:"account"`
	Extra         map[string]any `yaml:"extra"`
}
