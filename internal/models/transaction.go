package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents a single dated monetary movement against a budget.
// Rows are soft-deleted via the Deleted flag and never physically removed;
// every aggregation must exclude Deleted rows.
type Transaction struct {
	Base
	BudgetID    uint            `gorm:"not null;index" json:"budget_id"`
	CategoryID  *uint           `gorm:"index" json:"category_id,omitempty"`
	Description string          `gorm:"size:200;not null" json:"description"`
	Amount      int64           `gorm:"not null" json:"amount"`
	Type        TransactionType `gorm:"size:10;not null;index" json:"type"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Notes       string          `gorm:"size:500" json:"notes,omitempty"`
	Deleted     bool            `gorm:"not null;default:false" json:"deleted"`

	// Relationships
	Budget   Budget    `gorm:"foreignKey:BudgetID" json:"budget,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
