package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/models"
)

// uncategorizedLabel is displayed for expenses whose transaction has no
// category.
const uncategorizedLabel = "Uncategorized"

// trendMonths is the window of the monthly trend lists and of the average
// expense figure: the current month plus the five preceding it.
const trendMonths = 6

// dashboardService composes the multi-shaped dashboard report.
type dashboardService struct {
	db      *gorm.DB
	budgets BudgetServicer
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB, budgets BudgetServicer) DashboardServicer {
	return &dashboardService{db: db, budgets: budgets}
}

// GetDashboard builds the full dashboard report for a user. When the date
// range is not given it defaults to the span of the budgets active today,
// or to the current calendar month if none are active. Missing data always
// degrades to zero-valued metrics and empty lists, never to an error.
func (s *dashboardService) GetDashboard(userID uint, startDate, endDate *time.Time) (*Dashboard, error) {
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	today := dateOnly(time.Now())
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	activeBudgets, err := s.budgets.ActiveBudgetsOn(userID, today)
	if err != nil {
		return nil, err
	}

	start := monthStart
	end := monthStart.AddDate(0, 1, -1)
	if startDate != nil {
		start = dateOnly(*startDate)
	} else if len(activeBudgets) > 0 {
		start = activeBudgets[0].StartDate
		for _, b := range activeBudgets[1:] {
			if b.StartDate.Before(start) {
				start = b.StartDate
			}
		}
	}
	if endDate != nil {
		end = dateOnly(*endDate)
	} else if len(activeBudgets) > 0 {
		end = activeBudgets[0].EndDate
		for _, b := range activeBudgets[1:] {
			if b.EndDate.After(end) {
				end = b.EndDate
			}
		}
	}

	totalIncome, err := s.sumUserAmount(userID, models.TransactionTypeIncome, start, end)
	if err != nil {
		return nil, err
	}
	totalExpenses, err := s.sumUserAmount(userID, models.TransactionTypeExpense, start, end)
	if err != nil {
		return nil, err
	}
	balance := totalIncome - totalExpenses
	// Savings currently mirrors balance; both fields are part of the report shape.
	savings := totalIncome - totalExpenses

	// Average monthly expense over the trailing window, always divided by
	// the full window length regardless of how many months have data.
	sixMonthsAgo := today.AddDate(0, -trendMonths, 0)
	sixMonthExpenses, err := s.sumUserAmount(userID, models.TransactionTypeExpense, sixMonthsAgo, today)
	if err != nil {
		return nil, err
	}
	monthlyAverage := divRoundHalfUp(sixMonthExpenses, trendMonths)

	var totalBudget int64
	for _, b := range activeBudgets {
		totalBudget += b.TotalAmount
	}
	var budgetUsage float64
	if totalBudget > 0 {
		budgetUsage = percentOf(totalExpenses, totalBudget)
	}

	categoryBreakdown, err := s.buildCategoryBreakdown(userID, start, end, totalExpenses)
	if err != nil {
		return nil, err
	}
	budgetVsActual, err := s.buildBudgetVsActual(activeBudgets)
	if err != nil {
		return nil, err
	}
	balanceHistory, err := s.buildBalanceHistory(userID, start, end)
	if err != nil {
		return nil, err
	}
	fixedVsVariable, err := s.buildFixedVsVariable(userID, monthStart)
	if err != nil {
		return nil, err
	}
	incomeVsExpenses, err := s.buildIncomeVsExpenses(userID, monthStart)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalIncome:           totalIncome,
		TotalExpenses:         totalExpenses,
		Balance:               balance,
		MonthlyAverageExpense: monthlyAverage,
		TotalSavings:          savings,
		BudgetUsagePercentage: budgetUsage,
		StartDate:             start.Format("2006-01-02"),
		EndDate:               end.Format("2006-01-02"),
		CategoryBreakdown:     categoryBreakdown,
		BudgetVsActual:        budgetVsActual,
		BalanceHistory:        balanceHistory,
		FixedVsVariable:       fixedVsVariable,
		IncomeVsExpenses:      incomeVsExpenses,
	}, nil
}

// sumUserAmount sums non-deleted transaction amounts of one type across all
// of the user's budgets within [start, end].
func (s *dashboardService) sumUserAmount(userID uint, transactionType models.TransactionType, start, end time.Time) (int64, error) {
	var total int64
	err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(transactions.amount), 0)").
		Joins("JOIN budgets ON budgets.id = transactions.budget_id").
		Where("budgets.user_id = ? AND transactions.type = ? AND transactions.deleted = ?",
			userID, transactionType, false).
		Where("transactions.date BETWEEN ? AND ?", start, end).
		Scan(&total).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

func (s *dashboardService) buildCategoryBreakdown(userID uint, start, end time.Time, totalExpenses int64) ([]CategoryBreakdown, error) {
	var rows []struct {
		Name  *string
		Total int64
	}
	err := s.db.Model(&models.Transaction{}).
		Select("categories.name AS name, COALESCE(SUM(transactions.amount), 0) AS total").
		Joins("JOIN budgets ON budgets.id = transactions.budget_id").
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("budgets.user_id = ? AND transactions.type = ? AND transactions.deleted = ?",
			userID, models.TransactionTypeExpense, false).
		Where("transactions.date BETWEEN ? AND ?", start, end).
		Group("categories.name").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	breakdown := make([]CategoryBreakdown, 0, len(rows))
	for _, row := range rows {
		name := uncategorizedLabel
		if row.Name != nil && *row.Name != "" {
			name = *row.Name
		}
		var pct float64
		if totalExpenses > 0 {
			pct = percentOf(row.Total, totalExpenses)
		}
		breakdown = append(breakdown, CategoryBreakdown{
			CategoryName: name,
			Amount:       row.Total,
			Percentage:   pct,
		})
	}
	return breakdown, nil
}

// buildBudgetVsActual pairs each active budget with its lifetime expense
// total, unbounded by the report's date range.
func (s *dashboardService) buildBudgetVsActual(activeBudgets []models.Budget) ([]BudgetVsActual, error) {
	result := make([]BudgetVsActual, 0, len(activeBudgets))
	for _, budget := range activeBudgets {
		actual, err := sumBudgetAmount(s.db, budget.ID, models.TransactionTypeExpense)
		if err != nil {
			return nil, err
		}
		result = append(result, BudgetVsActual{
			BudgetName: budget.Name,
			Budgeted:   budget.TotalAmount,
			Actual:     actual,
		})
	}
	return result, nil
}

// buildBalanceHistory walks daily net changes in date order, accumulating a
// running balance from zero. Days without activity emit no point.
func (s *dashboardService) buildBalanceHistory(userID uint, start, end time.Time) ([]BalancePoint, error) {
	var rows []struct {
		Date   time.Time
		Change int64
	}
	err := s.db.Model(&models.Transaction{}).
		Select("transactions.date AS date, COALESCE(SUM(CASE WHEN transactions.type = ? THEN transactions.amount ELSE -transactions.amount END), 0) AS change",
			models.TransactionTypeIncome).
		Joins("JOIN budgets ON budgets.id = transactions.budget_id").
		Where("budgets.user_id = ? AND transactions.deleted = ?", userID, false).
		Where("transactions.date BETWEEN ? AND ?", start, end).
		Group("transactions.date").
		Order("transactions.date").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	history := make([]BalancePoint, 0, len(rows))
	var running int64
	for _, row := range rows {
		running += row.Change
		history = append(history, BalancePoint{
			Date:    row.Date.UTC().Format("2006-01-02"),
			Balance: running,
		})
	}
	return history, nil
}

// buildFixedVsVariable sums categorized expenses per month, split by the
// category's fixed/variable classification, for the trailing trend window
// oldest month first. Months without rows report zero buckets.
func (s *dashboardService) buildFixedVsVariable(userID uint, currentMonthStart time.Time) ([]ExpenseTypeTrend, error) {
	result := make([]ExpenseTypeTrend, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		monthStart := currentMonthStart.AddDate(0, -i, 0)
		monthEnd := monthStart.AddDate(0, 1, -1)

		var rows []struct {
			ExpenseType models.ExpenseType
			Total       int64
		}
		err := s.db.Model(&models.Transaction{}).
			Select("categories.expense_type AS expense_type, COALESCE(SUM(transactions.amount), 0) AS total").
			Joins("JOIN budgets ON budgets.id = transactions.budget_id").
			Joins("JOIN categories ON categories.id = transactions.category_id").
			Where("budgets.user_id = ? AND transactions.type = ? AND transactions.deleted = ?",
				userID, models.TransactionTypeExpense, false).
			Where("transactions.date BETWEEN ? AND ?", monthStart, monthEnd).
			Group("categories.expense_type").
			Scan(&rows).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		trend := ExpenseTypeTrend{Month: monthStart.Format("2006-01")}
		for _, row := range rows {
			if row.ExpenseType == models.ExpenseTypeFixed {
				trend.FixedExpenses = row.Total
			} else {
				trend.VariableExpenses = row.Total
			}
		}
		result = append(result, trend)
	}
	return result, nil
}

// buildIncomeVsExpenses sums income and expense independently per month for
// the trailing trend window, oldest month first.
func (s *dashboardService) buildIncomeVsExpenses(userID uint, currentMonthStart time.Time) ([]MonthlyCashflow, error) {
	result := make([]MonthlyCashflow, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		monthStart := currentMonthStart.AddDate(0, -i, 0)
		monthEnd := monthStart.AddDate(0, 1, -1)

		income, err := s.sumUserAmount(userID, models.TransactionTypeIncome, monthStart, monthEnd)
		if err != nil {
			return nil, err
		}
		expense, err := s.sumUserAmount(userID, models.TransactionTypeExpense, monthStart, monthEnd)
		if err != nil {
			return nil, err
		}

		result = append(result, MonthlyCashflow{
			Month:   monthStart.Format("2006-01"),
			Income:  income,
			Expense: expense,
		})
	}
	return result, nil
}
