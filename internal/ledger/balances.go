package ledger

import (
	"sort"

	"github.com/mmynk/expensemate/internal/models"
)

// ExpenseLookup resolves an expense by ID. ok is false when the expense does
// not exist.
type ExpenseLookup interface {
	Expense(id string) (expense *models.Expense, ok bool)
}

// ExpenseMap is an ExpenseLookup backed by a map keyed by expense ID.
type ExpenseMap map[string]*models.Expense

// Expense implements ExpenseLookup.
func (m ExpenseMap) Expense(id string) (*models.Expense, bool) {
	e, ok := m[id]
	return e, ok && e != nil
}

// SharedItem is one expense shared by both users.
type SharedItem struct {
	Expense *models.Expense
	RowA    models.UserExpense
	RowB    models.UserExpense

	// Balance is the signed balance from user A's perspective.
	// Positive = B owes A, negative = A owes B.
	Balance float64
}

// SharedLedger is the pairwise ledger between two users.
type SharedLedger struct {
	UserA string
	UserB string

	// Items are ordered by expense date, most recent first.
	Items []SharedItem

	// TotalBalance is the sum of item balances, from user A's perspective.
	TotalBalance float64
}

// ExpenseIDs returns the IDs of every shared expense, in item order.
func (l SharedLedger) ExpenseIDs() []string {
	ids := make([]string, len(l.Items))
	for i, item := range l.Items {
		ids[i] = item.Expense.ID
	}
	return ids
}

// ComputeSharedLedger derives the shared expenses and balance between userA
// and userB from each user's complete set of participation rows.
//
// Algorithm:
//   - An expense is shared iff both users have a row referencing it. When a
//     side has more than one row for an expense, the first one wins.
//   - Item balance = rowA.AmountPaid - rowA.AmountOwed.
//   - Total = sum of item balances.
//   - Rows whose expense is missing from lookup are skipped.
func ComputeSharedLedger(userA string, rowsA []models.UserExpense, userB string, rowsB []models.UserExpense, lookup ExpenseLookup) SharedLedger {
	result := SharedLedger{UserA: userA, UserB: userB, Items: []SharedItem{}}

	firstB := make(map[string]models.UserExpense, len(rowsB))
	for _, row := range rowsB {
		if _, seen := firstB[row.ExpenseID]; !seen {
			firstB[row.ExpenseID] = row
		}
	}

	seenA := make(map[string]bool, len(rowsA))
	for _, rowA := range rowsA {
		if seenA[rowA.ExpenseID] {
			continue
		}
		seenA[rowA.ExpenseID] = true

		rowB, shared := firstB[rowA.ExpenseID]
		if !shared {
			continue
		}
		expense, ok := lookup.Expense(rowA.ExpenseID)
		if !ok {
			continue
		}

		item := SharedItem{
			Expense: expense,
			RowA:    rowA,
			RowB:    rowB,
			Balance: rowA.Balance(),
		}
		result.Items = append(result.Items, item)
		result.TotalBalance += item.Balance
	}

	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].Expense.Date.After(result.Items[j].Expense.Date)
	})

	return result
}
