package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgeteer/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:             email,
		Password:          string(hash),
		PreferredCurrency: "USD",
		IsActive:          true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBudget creates an active monthly budget covering the current month.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID uint, totalAmount int64) *models.Budget {
	t.Helper()

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return CreateTestBudgetWithDates(t, db, userID, totalAmount, monthStart, monthStart.AddDate(0, 1, -1))
}

// CreateTestBudgetWithDates creates an active budget over the given date range.
func CreateTestBudgetWithDates(t *testing.T, db *gorm.DB, userID uint, totalAmount int64, startDate, endDate time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:      userID,
		Name:        fmt.Sprintf("Test Budget %d", nextID()),
		TotalAmount: totalAmount,
		Period:      models.BudgetPeriodMonthly,
		StartDate:   startDate,
		EndDate:     endDate,
		Currency:    "USD",
		IsActive:    true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestCategory creates a user-owned category of the given expense type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint, expenseType models.ExpenseType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:      &userID,
		Name:        fmt.Sprintf("Test Category %d", nextID()),
		ExpenseType: expenseType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestDefaultCategory creates a shared default category.
func CreateTestDefaultCategory(t *testing.T, db *gorm.DB, expenseType models.ExpenseType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:        fmt.Sprintf("Default Category %d", nextID()),
		ExpenseType: expenseType,
		IsDefault:   true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test default category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction of the given type and amount (in cents)
// dated today.
func CreateTestTransaction(t *testing.T, db *gorm.DB, budgetID uint, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, budgetID, txType, amount, time.Now().UTC())
}

// CreateTestTransactionOn creates a transaction on the given date.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, budgetID uint, txType models.TransactionType, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		BudgetID:    budgetID,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Type:        txType,
		Amount:      amount,
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
