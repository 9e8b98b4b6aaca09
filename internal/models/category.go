package models

// ExpenseType classifies a category's expenses as fixed or variable
type ExpenseType string

const (
	ExpenseTypeFixed    ExpenseType = "fixed"
	ExpenseTypeVariable ExpenseType = "variable"
)

// Category represents a transaction category. Default categories have a nil
// UserID, are shared across all users, and are immutable and undeletable.
type Category struct {
	Base
	UserID      *uint       `gorm:"index" json:"user_id,omitempty"`
	Name        string      `gorm:"size:80;not null" json:"name"`
	Description string      `gorm:"size:255" json:"description"`
	Icon        string      `gorm:"size:30" json:"icon"`
	Color       string      `gorm:"size:7" json:"color"`
	ExpenseType ExpenseType `gorm:"size:10;not null" json:"expense_type"`
	IsDefault   bool        `gorm:"not null;default:false" json:"is_default"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}
