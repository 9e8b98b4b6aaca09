package services

import (
	"time"

	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, fullName, preferredCurrency string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// BudgetDetail is a budget enriched with derived spending metrics.
type BudgetDetail struct {
	models.Budget
	SpentAmount     int64   `json:"spent_amount"`
	RemainingAmount int64   `json:"remaining_amount"`
	UsagePercentage float64 `json:"usage_percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID uint, name string, totalAmount int64, period models.BudgetPeriod, startDate, endDate time.Time, currency string) (*BudgetDetail, error)
	GetUserBudgets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[BudgetDetail], error)
	GetBudgetByID(userID, budgetID uint) (*BudgetDetail, error)
	UpdateBudget(userID, budgetID uint, name string, totalAmount *int64, period *models.BudgetPeriod, startDate, endDate *time.Time) (*BudgetDetail, error)
	DeactivateBudget(userID, budgetID uint) error
	ActiveBudgetsOn(userID uint, date time.Time) ([]models.Budget, error)
}

// TransactionFilter holds optional filter criteria for listing transactions.
// Nil or blank fields contribute no clause; present fields are combined
// with logical AND on top of the owner and not-deleted base predicate.
type TransactionFilter struct {
	BudgetID   *uint
	CategoryID *uint
	Type       *models.TransactionType
	StartDate  *time.Time
	EndDate    *time.Time
	Search     string
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID, budgetID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, date time.Time, notes string) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID, budgetID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, date time.Time, notes string) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
	GetBudgetTransactions(userID, budgetID uint) ([]models.Transaction, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	GetUserCategories(userID uint) ([]models.Category, error)
	CreateCategory(userID uint, name string, expenseType models.ExpenseType, description, icon, color string) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name, description, icon, color string, expenseType *models.ExpenseType) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
	SeedDefaults() error
}

// CategoryBreakdown is a per-category expense total within the report range.
type CategoryBreakdown struct {
	CategoryName string  `json:"category_name"`
	Amount       int64   `json:"amount"`
	Percentage   float64 `json:"percentage"`
}

// BudgetVsActual pairs a budget's allocation with its lifetime expense total.
type BudgetVsActual struct {
	BudgetName string `json:"budget_name"`
	Budgeted   int64  `json:"budgeted"`
	Actual     int64  `json:"actual"`
}

// BalancePoint is a running balance value on a day that had activity.
type BalancePoint struct {
	Date    string `json:"date"`
	Balance int64  `json:"balance"`
}

// ExpenseTypeTrend holds one month's expense totals split by fixed/variable.
type ExpenseTypeTrend struct {
	Month            string `json:"month"`
	FixedExpenses    int64  `json:"fixed_expenses"`
	VariableExpenses int64  `json:"variable_expenses"`
}

// MonthlyCashflow holds one month's income and expense totals.
type MonthlyCashflow struct {
	Month   string `json:"month"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
}

// Dashboard is the composed financial report for a user, recomputed on
// every request.
type Dashboard struct {
	TotalIncome           int64               `json:"total_income"`
	TotalExpenses         int64               `json:"total_expenses"`
	Balance               int64               `json:"balance"`
	MonthlyAverageExpense int64               `json:"monthly_average_expense"`
	TotalSavings          int64               `json:"total_savings"`
	BudgetUsagePercentage float64             `json:"budget_usage_percentage"`
	StartDate             string              `json:"start_date"`
	EndDate               string              `json:"end_date"`
	CategoryBreakdown     []CategoryBreakdown `json:"category_breakdown"`
	BudgetVsActual        []BudgetVsActual    `json:"budget_vs_actual"`
	BalanceHistory        []BalancePoint      `json:"balance_history"`
	FixedVsVariable       []ExpenseTypeTrend  `json:"fixed_vs_variable"`
	IncomeVsExpenses      []MonthlyCashflow   `json:"income_vs_expenses"`
}

// DashboardServicer defines the contract for building dashboard reports.
type DashboardServicer interface {
	GetDashboard(userID uint, startDate, endDate *time.Time) (*Dashboard, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
