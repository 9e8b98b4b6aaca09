package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
	"budgeteer/internal/testutil"
)

func TestCreateTransaction(t *testing.T) {
	t.Run("valid_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)

		tx, err := svc.CreateTransaction(user.ID, budget.ID, nil, models.TransactionTypeExpense, 2500, "Lunch", time.Now(), "")
		testutil.AssertNoError(t, err)

		if tx.ID == 0 {
			t.Fatal("expected non-zero transaction ID")
		}
		if tx.Amount != 2500 {
			t.Errorf("expected amount 2500, got %d", tx.Amount)
		}
		if tx.Deleted {
			t.Error("new transaction should not be deleted")
		}
	})

	t.Run("rejects_expense_over_budget_ceiling", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)

		testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 8000)

		_, err := svc.CreateTransaction(user.ID, budget.ID, nil, models.TransactionTypeExpense, 3000, "Too much", time.Now(), "")
		testutil.AssertAppError(t, err, "BUDGET_EXCEEDED")

		// Nothing was written
		var count int64
		db.Model(&models.Transaction{}).Where("budget_id = ? AND description = ?", budget.ID, "Too much").Count(&count)
		if count != 0 {
			t.Errorf("expected rejected transaction not to be persisted, count=%d", count)
		}
	})

	t.Run("concurrent_expenses_cannot_jointly_exceed_ceiling", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 1000)

		// Either write alone fits, both together overrun the ceiling.
		errs := make(chan error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := svc.CreateTransaction(user.ID, budget.ID, nil, models.TransactionTypeExpense, 800,
					fmt.Sprintf("Writer %d", n), time.Now(), "")
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)

		rejected := 0
		for err := range errs {
			if err != nil {
				testutil.AssertAppError(t, err, "BUDGET_EXCEEDED")
				rejected++
			}
		}
		if rejected != 1 {
			t.Fatalf("expected exactly one writer to be rejected, got %d", rejected)
		}

		spent, err := sumBudgetAmount(db, budget.ID, models.TransactionTypeExpense)
		testutil.AssertNoError(t, err)
		if spent > 1000 {
			t.Errorf("budget overrun: spent %d of 1000", spent)
		}
	})

	t.Run("allows_expense_exactly_at_ceiling", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)

		testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 8000)

		_, err := svc.CreateTransaction(user.ID, budget.ID, nil, models.TransactionTypeExpense, 2000, "Exactly full", time.Now(), "")
		testutil.AssertNoError(t, err)
	})

	t.Run("income_bypasses_ceiling_check", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)

		_, err := svc.CreateTransaction(user.ID, budget.ID, nil, models.TransactionTypeIncome, 999999, "Salary", time.Now(), "")
		testutil.AssertNoError(t, err)
	})

	t.Run("deleted_expenses_free_up_the_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)

		old := testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 9000)
		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, old.ID))

		_, err := svc.CreateTransaction(user.ID, budget.ID, nil, models.TransactionTypeExpense, 9000, "Replacement", time.Now(), "")
		testutil.AssertNoError(t, err)
	})

	t.Run("rejects_non_positive_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)

		_, err := svc.CreateTransaction(user.ID, budget.ID, nil, models.TransactionTypeExpense, 0, "Free", time.Now(), "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects_invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)

		_, err := svc.CreateTransaction(user.ID, budget.ID, nil, models.TransactionType("transfer"), 1000, "Odd", time.Now(), "")
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("rejects_foreign_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user1.ID, 10000)

		_, err := svc.CreateTransaction(user2.ID, budget.ID, nil, models.TransactionTypeExpense, 1000, "Sneaky", time.Now(), "")
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})

	t.Run("accepts_default_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)
		defCat := testutil.CreateTestDefaultCategory(t, db, models.ExpenseTypeVariable)

		tx, err := svc.CreateTransaction(user.ID, budget.ID, &defCat.ID, models.TransactionTypeExpense, 1000, "Groceries", time.Now(), "")
		testutil.AssertNoError(t, err)
		if tx.CategoryID == nil || *tx.CategoryID != defCat.ID {
			t.Error("expected default category to be attached")
		}
	})

	t.Run("rejects_foreign_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user1.ID, 10000)
		cat := testutil.CreateTestCategory(t, db, user2.ID, models.ExpenseTypeVariable)

		_, err := svc.CreateTransaction(user1.ID, budget.ID, &cat.ID, models.TransactionTypeExpense, 1000, "Nope", time.Now(), "")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestGetUserTransactions(t *testing.T) {
	t.Run("excludes_deleted_and_foreign", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		budget1 := testutil.CreateTestBudget(t, db, user1.ID, 100000)
		budget2 := testutil.CreateTestBudget(t, db, user2.ID, 100000)

		testutil.CreateTestTransaction(t, db, budget1.ID, models.TransactionTypeExpense, 1000)
		deleted := testutil.CreateTestTransaction(t, db, budget1.ID, models.TransactionTypeExpense, 2000)
		testutil.AssertNoError(t, svc.DeleteTransaction(user1.ID, deleted.ID))
		testutil.CreateTestTransaction(t, db, budget2.ID, models.TransactionTypeExpense, 3000)

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserTransactions(user1.ID, page, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected 1 transaction, got %d", result.TotalItems)
		}
	})

	t.Run("filter_by_budget_and_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget1 := testutil.CreateTestBudget(t, db, user.ID, 100000)
		budget2 := testutil.CreateTestBudget(t, db, user.ID, 100000)

		testutil.CreateTestTransaction(t, db, budget1.ID, models.TransactionTypeExpense, 1000)
		testutil.CreateTestTransaction(t, db, budget1.ID, models.TransactionTypeIncome, 2000)
		testutil.CreateTestTransaction(t, db, budget2.ID, models.TransactionTypeExpense, 3000)

		expense := models.TransactionTypeExpense
		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{
			BudgetID: &budget1.ID,
			Type:     &expense,
		})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Fatalf("expected 1 transaction, got %d", result.TotalItems)
		}
		if result.Data[0].Amount != 1000 {
			t.Errorf("expected the budget1 expense, got amount %d", result.Data[0].Amount)
		}
	})

	t.Run("filter_by_date_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudgetWithDates(t, db, user.ID, 100000,
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))

		testutil.CreateTestTransactionOn(t, db, budget.ID, models.TransactionTypeExpense, 1000, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC))
		inside := testutil.CreateTestTransactionOn(t, db, budget.ID, models.TransactionTypeExpense, 2000, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
		testutil.CreateTestTransactionOn(t, db, budget.ID, models.TransactionTypeExpense, 3000, time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC))

		start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{StartDate: &start, EndDate: &end})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Fatalf("expected 1 transaction in range, got %d", result.TotalItems)
		}
		if result.Data[0].ID != inside.ID {
			t.Errorf("expected transaction %d, got %d", inside.ID, result.Data[0].ID)
		}
	})

	t.Run("boundary_dates_are_inclusive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 100000)

		day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
		testutil.CreateTestTransactionOn(t, db, budget.ID, models.TransactionTypeExpense, 1000, day)

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{StartDate: &day, EndDate: &day})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected the boundary-day transaction to match, got %d", result.TotalItems)
		}
	})

	t.Run("search_is_case_insensitive_substring", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 100000)

		match := &models.Transaction{BudgetID: budget.ID, Description: "Weekly GROCERY run", Amount: 1000, Type: models.TransactionTypeExpense, Date: time.Now()}
		other := &models.Transaction{BudgetID: budget.ID, Description: "Gas station", Amount: 2000, Type: models.TransactionTypeExpense, Date: time.Now()}
		testutil.AssertNoError(t, db.Create(match).Error)
		testutil.AssertNoError(t, db.Create(other).Error)

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{Search: "  grocery "})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Fatalf("expected 1 match, got %d", result.TotalItems)
		}
		if result.Data[0].ID != match.ID {
			t.Errorf("expected transaction %d, got %d", match.ID, result.Data[0].ID)
		}
	})

	t.Run("rejects_inverted_date_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		start := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		page := pagination.PageRequest{Page: 1, PageSize: 20}
		_, err := svc.GetUserTransactions(user.ID, page, TransactionFilter{StartDate: &start, EndDate: &end})
		testutil.AssertAppError(t, err, "INVALID_DATE_RANGE")
	})
}

func TestGetTransactionByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)
		tx := testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 1000)

		found, err := svc.GetTransactionByID(user.ID, tx.ID)
		testutil.AssertNoError(t, err)
		if found.ID != tx.ID {
			t.Errorf("expected transaction %d, got %d", tx.ID, found.ID)
		}
	})

	t.Run("deleted_is_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)
		tx := testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 1000)

		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, tx.ID))

		_, err := svc.GetTransactionByID(user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user1.ID, 10000)
		tx := testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 1000)

		_, err := svc.GetTransactionByID(user2.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("replaces_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 100000)
		tx := testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 1000)

		newDate := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
		_, err := svc.UpdateTransaction(user.ID, tx.ID, budget.ID, nil, models.TransactionTypeIncome, 4200, "Refund", newDate, "store credit")
		testutil.AssertNoError(t, err)

		fetched, err := svc.GetTransactionByID(user.ID, tx.ID)
		testutil.AssertNoError(t, err)
		if fetched.Amount != 4200 || fetched.Type != models.TransactionTypeIncome || fetched.Description != "Refund" {
			t.Errorf("update not applied: %+v", fetched)
		}
	})

	t.Run("can_move_between_budgets", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget1 := testutil.CreateTestBudget(t, db, user.ID, 10000)
		budget2 := testutil.CreateTestBudget(t, db, user.ID, 10000)
		tx := testutil.CreateTestTransaction(t, db, budget1.ID, models.TransactionTypeExpense, 1000)

		_, err := svc.UpdateTransaction(user.ID, tx.ID, budget2.ID, nil, models.TransactionTypeExpense, 1000, "Moved", tx.Date, "")
		testutil.AssertNoError(t, err)

		fetched, err := svc.GetTransactionByID(user.ID, tx.ID)
		testutil.AssertNoError(t, err)
		if fetched.BudgetID != budget2.ID {
			t.Errorf("expected budget %d, got %d", budget2.ID, fetched.BudgetID)
		}
	})

	t.Run("does_not_recheck_budget_ceiling", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)
		tx := testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 1000)

		// Raising the amount far past the ceiling succeeds on update
		_, err := svc.UpdateTransaction(user.ID, tx.ID, budget.ID, nil, models.TransactionTypeExpense, 50000, "Big", tx.Date, "")
		testutil.AssertNoError(t, err)
	})

	t.Run("cannot_move_to_foreign_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		budget1 := testutil.CreateTestBudget(t, db, user1.ID, 10000)
		budget2 := testutil.CreateTestBudget(t, db, user2.ID, 10000)
		tx := testutil.CreateTestTransaction(t, db, budget1.ID, models.TransactionTypeExpense, 1000)

		_, err := svc.UpdateTransaction(user1.ID, tx.ID, budget2.ID, nil, models.TransactionTypeExpense, 1000, "Sneaky", tx.Date, "")
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("soft_deletes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)
		tx := testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 1000)

		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, tx.ID))

		// Row remains with the deleted flag set
		var fetched models.Transaction
		if err := db.First(&fetched, tx.ID).Error; err != nil {
			t.Fatalf("expected row to remain after soft delete: %v", err)
		}
		if !fetched.Deleted {
			t.Error("expected deleted flag to be set")
		}
	})

	t.Run("already_deleted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000)
		tx := testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 1000)

		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, tx.ID))
		err := svc.DeleteTransaction(user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestGetBudgetTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db)
	user := testutil.CreateTestUser(t, db)
	budget := testutil.CreateTestBudget(t, db, user.ID, 100000)
	other := testutil.CreateTestBudget(t, db, user.ID, 100000)

	testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 1000)
	testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeIncome, 2000)
	testutil.CreateTestTransaction(t, db, other.ID, models.TransactionTypeExpense, 3000)
	deleted := testutil.CreateTestTransaction(t, db, budget.ID, models.TransactionTypeExpense, 4000)
	testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, deleted.ID))

	transactions, err := svc.GetBudgetTransactions(user.ID, budget.ID)
	testutil.AssertNoError(t, err)

	if len(transactions) != 2 {
		t.Errorf("expected 2 transactions, got %d", len(transactions))
	}
}
