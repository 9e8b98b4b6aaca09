package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction creates a new transaction against one of the user's
// budgets. Expense creations are checked against the budget ceiling; the
// check and the insert run in one database transaction that locks the
// budget row, so concurrent writers on the same budget cannot both pass
// on a stale spent total.
func (s *transactionService) CreateTransaction(
	userID, budgetID uint,
	categoryID *uint,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
	notes string,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if date.IsZero() {
		date = time.Now()
	}

	budget, err := s.findOwnedBudget(s.db, userID, budgetID)
	if err != nil {
		return nil, err
	}

	if categoryID != nil {
		if err := s.checkCategoryVisible(userID, *categoryID); err != nil {
			return nil, err
		}
	}

	transaction := &models.Transaction{
		BudgetID:    budget.ID,
		CategoryID:  categoryID,
		Description: description,
		Amount:      amount,
		Type:        transactionType,
		Date:        dateOnly(date),
		Notes:       notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if transactionType == models.TransactionTypeExpense {
			// SELECT ... FOR UPDATE on the budget row serializes concurrent
			// expense creations against the same budget. Under READ COMMITTED
			// two writers could otherwise both sum the same stale spent total
			// and both pass the ceiling check. SQLite drops the clause, its
			// writes serialize on their own.
			var locked models.Budget
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&locked, budget.ID).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			currentSpent, err := sumBudgetAmount(tx, budget.ID, models.TransactionTypeExpense)
			if err != nil {
				return err
			}
			if err := CheckExpenseAllowed(&locked, currentSpent, amount); err != nil {
				return err
			}
		}

		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	page.Defaults()

	base := applyTransactionFilters(s.userTransactionsQuery(userID), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Category").
		Order("transactions.date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// userTransactionsQuery is the base predicate shared by every transaction
// read: ownership through the budget and exclusion of soft-deleted rows.
func (s *transactionService) userTransactionsQuery(userID uint) *gorm.DB {
	return s.db.Model(&models.Transaction{}).
		Joins("JOIN budgets ON budgets.id = transactions.budget_id").
		Where("budgets.user_id = ? AND transactions.deleted = ?", userID, false)
}

// applyTransactionFilters ANDs one clause per present filter field onto the
// base query. Absent fields leave the criteria open.
func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.BudgetID != nil {
		q = q.Where("transactions.budget_id = ?", *f.BudgetID)
	}
	if f.CategoryID != nil {
		q = q.Where("transactions.category_id = ?", *f.CategoryID)
	}
	if f.Type != nil {
		q = q.Where("transactions.type = ?", *f.Type)
	}
	if f.StartDate != nil {
		q = q.Where("transactions.date >= ?", dateOnly(*f.StartDate))
	}
	if f.EndDate != nil {
		q = q.Where("transactions.date <= ?", dateOnly(*f.EndDate))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		q = q.Where("LOWER(transactions.description) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	return q
}

// GetTransactionByID retrieves a non-deleted transaction owned by the user
// through its budget.
func (s *transactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.
		Joins("JOIN budgets ON budgets.id = transactions.budget_id").
		Where("transactions.id = ? AND budgets.user_id = ? AND transactions.deleted = ?",
			transactionID, userID, false).
		Preload("Category").
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction replaces a transaction's fields, including re-pointing
// it to a different budget. The budget ceiling is not re-checked on update.
func (s *transactionService) UpdateTransaction(
	userID, transactionID, budgetID uint,
	categoryID *uint,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
	notes string,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}

	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.findOwnedBudget(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	if categoryID != nil {
		if err := s.checkCategoryVisible(userID, *categoryID); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{
		"budget_id":   budgetID,
		"category_id": categoryID,
		"description": description,
		"amount":      amount,
		"type":        transactionType,
		"date":        dateOnly(date),
		"notes":       notes,
	}
	if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, nil
}

// DeleteTransaction marks a transaction deleted. Rows are never physically
// removed so every aggregation must filter on the deleted flag.
func (s *transactionService) DeleteTransaction(userID, transactionID uint) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Model(transaction).Update("deleted", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetTransactions returns all non-deleted transactions of one budget,
// newest first. Used by the CSV export.
func (s *transactionService) GetBudgetTransactions(userID, budgetID uint) ([]models.Transaction, error) {
	if _, err := s.findOwnedBudget(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	err := s.db.
		Where("budget_id = ? AND deleted = ?", budgetID, false).
		Preload("Category").
		Order("date DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

func (s *transactionService) findOwnedBudget(db *gorm.DB, userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// checkCategoryVisible verifies the category is either owned by the user or
// a shared default.
func (s *transactionService) checkCategoryVisible(userID, categoryID uint) error {
	var count int64
	err := s.db.Model(&models.Category{}).
		Where("id = ? AND (user_id = ? OR is_default = ?)", categoryID, userID, true).
		Count(&count).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}
