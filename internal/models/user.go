package models

// User represents the user model in the database
type User struct {
	Base
	Email             string `gorm:"uniqueIndex;not null" json:"email"`
	Password          string `gorm:"not null" json:"-"`
	FullName          string `json:"full_name"`
	PreferredCurrency string `gorm:"size:3;default:USD" json:"preferred_currency"`
	IsActive          bool   `gorm:"default:true" json:"is_active"`

	Budgets    []Budget   `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
	Categories []Category `gorm:"foreignKey:UserID" json:"categories,omitempty"`
}
