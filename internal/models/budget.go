package models

import "time"

type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "INCOME"
	CategoryTypeExpense CategoryType = "EXPENSE"
)

// Category with a nil UserID is a system preset, visible to every user and
// not editable by any of them.
type Category struct {
	ID          string
	UserID      *string
	Name        string
	Description string
	Type        CategoryType
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Income struct {
	ID          string
	UserID      string
	CategoryID  string
	Description string
	Amount      string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Expense struct {
	ID          string
	UserID      string
	CategoryID  string
	Description string
	Amount      string
	Date        time.Time
	ReceiptKey  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
