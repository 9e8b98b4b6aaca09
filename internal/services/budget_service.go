package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new budget for a user. When currency is empty it
// falls back to the user's preferred currency.
func (s *budgetService) CreateBudget(
	userID uint,
	name string,
	totalAmount int64,
	period models.BudgetPeriod,
	startDate, endDate time.Time,
	currency string,
) (*BudgetDetail, error) {
	if totalAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total amount must be greater than zero")
	}
	if endDate.Before(startDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if currency == "" {
		currency = user.PreferredCurrency
	}

	budget := &models.Budget{
		UserID:      userID,
		Name:        name,
		TotalAmount: totalAmount,
		Period:      period,
		StartDate:   dateOnly(startDate),
		EndDate:     dateOnly(endDate),
		Currency:    currency,
		IsActive:    true,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.enrich(budget)
}

// GetUserBudgets returns a paginated list of the user's active budgets,
// each enriched with derived spending metrics.
func (s *budgetService) GetUserBudgets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[BudgetDetail], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ? AND is_active = ?", userID, true)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Scopes(pagination.Paginate(page)).
		Order("start_date DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	details := make([]BudgetDetail, 0, len(budgets))
	for i := range budgets {
		detail, err := s.enrich(&budgets[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}

	result := pagination.NewPageResponse(details, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*BudgetDetail, error) {
	budget, err := s.findOwned(userID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.enrich(budget)
}

// UpdateBudget updates an existing budget's fields.
func (s *budgetService) UpdateBudget(
	userID, budgetID uint,
	name string,
	totalAmount *int64,
	period *models.BudgetPeriod,
	startDate, endDate *time.Time,
) (*BudgetDetail, error) {
	budget, err := s.findOwned(userID, budgetID)
	if err != nil {
		return nil, err
	}

	newStart := budget.StartDate
	newEnd := budget.EndDate
	if startDate != nil {
		newStart = dateOnly(*startDate)
	}
	if endDate != nil {
		newEnd = dateOnly(*endDate)
	}
	if newEnd.Before(newStart) {
		return nil, apperrors.ErrInvalidDateRange
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if totalAmount != nil {
		if *totalAmount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total amount must be greater than zero")
		}
		updates["total_amount"] = *totalAmount
	}
	if period != nil {
		updates["period"] = *period
	}
	if startDate != nil {
		updates["start_date"] = newStart
	}
	if endDate != nil {
		updates["end_date"] = newEnd
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.enrich(budget)
}

// DeactivateBudget marks a budget inactive. Deactivation is irreversible;
// budgets are never hard-deleted.
func (s *budgetService) DeactivateBudget(userID, budgetID uint) error {
	budget, err := s.findOwned(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Model(budget).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ActiveBudgetsOn returns the user's active budgets whose period contains
// the given date.
func (s *budgetService) ActiveBudgetsOn(userID uint, date time.Time) ([]models.Budget, error) {
	day := dateOnly(date)

	var budgets []models.Budget
	if err := s.db.
		Where("user_id = ? AND is_active = ? AND start_date <= ? AND end_date >= ?",
			userID, true, day, day).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

func (s *budgetService) findOwned(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// enrich attaches derived metrics to a budget. Spent is the budget's
// lifetime expense total over non-deleted transactions.
func (s *budgetService) enrich(budget *models.Budget) (*BudgetDetail, error) {
	spent, err := sumBudgetAmount(s.db, budget.ID, models.TransactionTypeExpense)
	if err != nil {
		return nil, err
	}

	metrics := ComputeBudgetMetrics(budget.TotalAmount, spent)
	return &BudgetDetail{
		Budget:          *budget,
		SpentAmount:     metrics.Spent,
		RemainingAmount: metrics.Remaining,
		UsagePercentage: metrics.UsagePercentage,
	}, nil
}

// sumBudgetAmount sums non-deleted transaction amounts of the given type for
// one budget.
func sumBudgetAmount(db *gorm.DB, budgetID uint, transactionType models.TransactionType) (int64, error) {
	var total int64
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("budget_id = ? AND type = ? AND deleted = ?", budgetID, transactionType, false).
		Scan(&total).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// dateOnly truncates a timestamp to its UTC calendar day. Transaction and
// budget dates are stored at day granularity.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
