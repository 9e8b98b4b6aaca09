package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/logger"
	"budgeteer/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// defaultCategories is seeded once at startup and shared by all users.
var defaultCategories = []models.Category{
	{Name: "Housing", ExpenseType: models.ExpenseTypeFixed, Icon: "home", Color: "#4E79A7", IsDefault: true},
	{Name: "Utilities", ExpenseType: models.ExpenseTypeFixed, Icon: "bolt", Color: "#F28E2B", IsDefault: true},
	{Name: "Insurance", ExpenseType: models.ExpenseTypeFixed, Icon: "shield", Color: "#59A14F", IsDefault: true},
	{Name: "Groceries", ExpenseType: models.ExpenseTypeVariable, Icon: "cart", Color: "#E15759", IsDefault: true},
	{Name: "Transportation", ExpenseType: models.ExpenseTypeVariable, Icon: "car", Color: "#76B7B2", IsDefault: true},
	{Name: "Dining Out", ExpenseType: models.ExpenseTypeVariable, Icon: "utensils", Color: "#EDC948", IsDefault: true},
	{Name: "Entertainment", ExpenseType: models.ExpenseTypeVariable, Icon: "film", Color: "#B07AA1", IsDefault: true},
	{Name: "Health", ExpenseType: models.ExpenseTypeVariable, Icon: "heart", Color: "#FF9DA7", IsDefault: true},
}

// SeedDefaults creates the shared default categories if they do not exist.
// Default categories have no owner and cannot be edited or deleted.
func (s *categoryService) SeedDefaults() error {
	for _, category := range defaultCategories {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("name = ? AND is_default = ?", category.Name, true).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			continue
		}

		c := category
		if err := s.db.Create(&c).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		logger.Get().Infow("seeded default category", "name", c.Name)
	}
	return nil
}

// GetUserCategories returns the user's own categories plus the shared
// defaults, ordered by name.
func (s *categoryService) GetUserCategories(userID uint) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.
		Where("user_id = ? OR is_default = ?", userID, true).
		Order("name").
		Find(&categories).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// CreateCategory creates a new category owned by the user. Names must be
// unique within the owner's categories.
func (s *categoryService) CreateCategory(
	userID uint,
	name string,
	expenseType models.ExpenseType,
	description, icon, color string,
) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategoryName
	}

	category := &models.Category{
		UserID:      &userID,
		Name:        name,
		ExpenseType: expenseType,
		Description: description,
		Icon:        icon,
		Color:       color,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// UpdateCategory updates an existing category. Default categories are
// immutable for every user.
func (s *categoryService) UpdateCategory(
	userID, categoryID uint,
	name, description, icon, color string,
	expenseType *models.ExpenseType,
) (*models.Category, error) {
	category, err := s.findVisible(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsDefault {
		return nil, apperrors.ErrDefaultCategoryImmutable
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if color != "" {
		updates["color"] = color
	}
	if expenseType != nil {
		updates["expense_type"] = *expenseType
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory soft-deletes a category the user owns. Default categories
// cannot be deleted. Existing transactions keep their category reference
// for historical records.
func (s *categoryService) DeleteCategory(userID, categoryID uint) error {
	category, err := s.findVisible(userID, categoryID)
	if err != nil {
		return err
	}
	if category.IsDefault {
		return apperrors.ErrDefaultCategoryImmutable
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *categoryService) findVisible(userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	err := s.db.
		Where("id = ? AND (user_id = ? OR is_default = ?)", categoryID, userID, true).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}
