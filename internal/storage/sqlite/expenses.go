package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

const expenseColumns = `id, name, date, category, total_cost, currency, paid_by,
	original_currency, original_total_cost, exchange_rate, conversion_date, created_at, updated_at`

// CreateExpense inserts the expense, its participation rows and the audit
// entry in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, rows []models.UserExpense, entry *models.AuditLog) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Name, toNanos(expense.Date), expense.Category, expense.TotalCost,
		expense.Currency, expense.PaidBy, expense.OriginalCurrency, expense.OriginalTotalCost,
		expense.ExchangeRate, nullNanos(expense.ConversionDate), toNanos(expense.CreatedAt),
		nullNanos(expense.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i := range rows {
		row := &rows[i]
		if row.ID == "" {
			row.ID = uuid.New().String()
		}
		row.ExpenseID = expense.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_expenses (id, user_id, expense_id, amount_paid, amount_owed) VALUES (?, ?, ?, ?, ?)`,
			row.ID, row.UserID, row.ExpenseID, row.AmountPaid, row.AmountOwed,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user expense: %w", err)
		}
	}

	if entry != nil {
		entry.ExpenseID = expense.ID
		if err := insertAuditLog(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateExpense overwrites the expense and the amounts of its existing rows.
// Rows are matched by ID and never inserted or removed.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense, rows []models.UserExpense, entry *models.AuditLog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET name = ?, date = ?, category = ?, total_cost = ?, currency = ?, paid_by = ?,
			original_currency = ?, original_total_cost = ?, exchange_rate = ?, conversion_date = ?, updated_at = ?
		 WHERE id = ?`,
		expense.Name, toNanos(expense.Date), expense.Category, expense.TotalCost, expense.Currency,
		expense.PaidBy, expense.OriginalCurrency, expense.OriginalTotalCost, expense.ExchangeRate,
		nullNanos(expense.ConversionDate), nullNanos(expense.UpdatedAt), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	for _, row := range rows {
		res, err := tx.ExecContext(ctx,
			`UPDATE user_expenses SET amount_paid = ?, amount_owed = ? WHERE id = ? AND expense_id = ?`,
			row.AmountPaid, row.AmountOwed, row.ID, expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update user expense: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("user expense %s: %w", row.ID, storage.ErrNotFound)
		}
	}

	if entry != nil {
		if err := insertAuditLog(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes the participation rows, then the expense, and records
// the audit entry in one transaction.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string, entry *models.AuditLog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_expenses WHERE expense_id = ?`, expenseID); err != nil {
		return fmt.Errorf("failed to delete user expenses: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	if entry != nil {
		if err := insertAuditLog(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// GetExpenses retrieves the expenses with the given IDs keyed by ID.
func (s *SQLiteStore) GetExpenses(ctx context.Context, ids []string) (map[string]*models.Expense, error) {
	expenses := make(map[string]*models.Expense, len(ids))
	if len(ids) == 0 {
		return expenses, nil
	}

	placeholders, args := inClause(ids)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses[expense.ID] = expense
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// ListUserExpenses returns every participation row of the user.
func (s *SQLiteStore) ListUserExpenses(ctx context.Context, userID string) ([]models.UserExpense, error) {
	return s.listRows(ctx, `WHERE user_id = ? ORDER BY rowid`, userID)
}

// ListExpenseRows returns the participation rows of one expense.
func (s *SQLiteStore) ListExpenseRows(ctx context.Context, expenseID string) ([]models.UserExpense, error) {
	return s.listRows(ctx, `WHERE expense_id = ? ORDER BY rowid`, expenseID)
}

func (s *SQLiteStore) listRows(ctx context.Context, where string, arg string) ([]models.UserExpense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, expense_id, amount_paid, amount_owed FROM user_expenses `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list user expenses: %w", err)
	}
	defer rows.Close()

	var out []models.UserExpense
	for rows.Next() {
		var ue models.UserExpense
		if err := rows.Scan(&ue.ID, &ue.UserID, &ue.ExpenseID, &ue.AmountPaid, &ue.AmountOwed); err != nil {
			return nil, fmt.Errorf("failed to scan user expense: %w", err)
		}
		out = append(out, ue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user expenses: %w", err)
	}
	return out, nil
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	var (
		date, createdAt            int64
		category, originalCurrency sql.NullString
		originalTotal, rate        sql.NullFloat64
		conversionDate, updatedAt  sql.NullInt64
	)
	if err := row.Scan(
		&e.ID, &e.Name, &date, &category, &e.TotalCost, &e.Currency, &e.PaidBy,
		&originalCurrency, &originalTotal, &rate, &conversionDate, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	e.Date = fromNanos(date)
	e.Category = stringPtr(category)
	e.OriginalCurrency = stringPtr(originalCurrency)
	e.OriginalTotalCost = floatPtr(originalTotal)
	e.ExchangeRate = floatPtr(rate)
	e.ConversionDate = timePtr(conversionDate)
	e.CreatedAt = fromNanos(createdAt)
	e.UpdatedAt = timePtr(updatedAt)
	return e, nil
}
