package models

import "time"

// Expense is a single shared cost between the two users of a connection.
//
// TotalCost is always expressed in the canonical currency. The original
// currency fields are either all set or all nil.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	Name string

	// Date is the business date of the expense, used for ordering.
	Date time.Time

	// Category is optional.
	Category *string

	// TotalCost in the canonical currency.
	TotalCost float64

	// Currency is always the canonical currency code.
	Currency string

	// PaidBy is the user ID of the payer.
	PaidBy string

	// Original currency group, present only for expenses entered in a
	// foreign currency.
	OriginalCurrency  *string
	OriginalTotalCost *float64
	ExchangeRate      *float64
	ConversionDate    *time.Time

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// HasOriginalCurrency reports whether the expense was entered in a foreign
// currency.
func (e *Expense) HasOriginalCurrency() bool {
	return e.OriginalCurrency != nil
}

// ClearOriginalCurrency removes the whole original currency group.
func (e *Expense) ClearOriginalCurrency() {
	e.OriginalCurrency = nil
	e.OriginalTotalCost = nil
	e.ExchangeRate = nil
	e.ConversionDate = nil
}

// DisplayCurrency is the currency the expense was entered in.
func (e *Expense) DisplayCurrency() string {
	if e.OriginalCurrency != nil {
		return *e.OriginalCurrency
	}
	return e.Currency
}

// DisplayTotal is the total in the currency the expense was entered in.
func (e *Expense) DisplayTotal() float64 {
	if e.OriginalTotalCost != nil {
		return *e.OriginalTotalCost
	}
	return e.TotalCost
}

// UserExpense is a ledger participation row: what one user paid and owes for
// one expense. AmountPaid - AmountOwed is the user's signed balance for the
// expense (positive means they are owed).
type UserExpense struct {
	ID         string
	UserID     string
	ExpenseID  string
	AmountPaid float64
	AmountOwed float64
}

// Balance returns the signed balance contribution of this row.
func (ue UserExpense) Balance() float64 {
	return ue.AmountPaid - ue.AmountOwed
}
