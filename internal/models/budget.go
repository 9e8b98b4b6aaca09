package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
	BudgetPeriodCustom  BudgetPeriod = "custom"
)

// Budget represents a bounded monetary allocation over a date range.
// Amounts are stored in minor currency units (cents). A budget is never
// hard-deleted; deactivation (IsActive=false) is irreversible.
type Budget struct {
	Base
	UserID      uint         `gorm:"not null;index" json:"user_id"`
	Name        string       `gorm:"size:100;not null" json:"name"`
	TotalAmount int64        `gorm:"not null" json:"total_amount"`
	Period      BudgetPeriod `gorm:"size:10;not null" json:"period"`
	StartDate   time.Time    `gorm:"not null" json:"start_date"`
	EndDate     time.Time    `gorm:"not null" json:"end_date"`
	Currency    string       `gorm:"size:3;not null" json:"currency"`
	IsActive    bool         `gorm:"default:true" json:"is_active"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:BudgetID" json:"transactions,omitempty"`
}
