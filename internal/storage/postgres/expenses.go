package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

const expenseColumns = `id, name, date, category, total_cost, currency, paid_by,
	original_currency, original_total_cost, exchange_rate, conversion_date, created_at, updated_at`

func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense, rows []models.UserExpense, entry *models.AuditLog) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO expenses (`+expenseColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			expense.ID, expense.Name, utc(expense.Date), expense.Category, expense.TotalCost,
			expense.Currency, expense.PaidBy, expense.OriginalCurrency, expense.OriginalTotalCost,
			expense.ExchangeRate, utcPtr(expense.ConversionDate), utc(expense.CreatedAt), utcPtr(expense.UpdatedAt),
		); err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for i := range rows {
			row := &rows[i]
			if row.ID == "" {
				row.ID = uuid.New().String()
			}
			row.ExpenseID = expense.ID
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_expenses (id, user_id, expense_id, amount_paid, amount_owed) VALUES ($1, $2, $3, $4, $5)`,
				row.ID, row.UserID, row.ExpenseID, row.AmountPaid, row.AmountOwed,
			); err != nil {
				return fmt.Errorf("failed to insert user expense: %w", err)
			}
		}

		if entry == nil {
			return nil
		}
		entry.ExpenseID = expense.ID
		return insertAuditLog(ctx, tx, entry)
	})
}

func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense, rows []models.UserExpense, entry *models.AuditLog) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE expenses SET name = $1, date = $2, category = $3, total_cost = $4, currency = $5, paid_by = $6,
				original_currency = $7, original_total_cost = $8, exchange_rate = $9, conversion_date = $10, updated_at = $11
			 WHERE id = $12`,
			expense.Name, utc(expense.Date), expense.Category, expense.TotalCost, expense.Currency,
			expense.PaidBy, expense.OriginalCurrency, expense.OriginalTotalCost, expense.ExchangeRate,
			utcPtr(expense.ConversionDate), utcPtr(expense.UpdatedAt), expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
		}

		for _, row := range rows {
			tag, err := tx.Exec(ctx,
				`UPDATE user_expenses SET amount_paid = $1, amount_owed = $2 WHERE id = $3 AND expense_id = $4`,
				row.AmountPaid, row.AmountOwed, row.ID, expense.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update user expense: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("user expense %s: %w", row.ID, storage.ErrNotFound)
			}
		}

		if entry == nil {
			return nil
		}
		return insertAuditLog(ctx, tx, entry)
	})
}

func (s *Store) DeleteExpense(ctx context.Context, expenseID string, entry *models.AuditLog) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_expenses WHERE expense_id = $1`, expenseID); err != nil {
			return fmt.Errorf("failed to delete user expenses: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, expenseID)
		if err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
		}

		if entry == nil {
			return nil
		}
		return insertAuditLog(ctx, tx, entry)
	})
}

func (s *Store) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	expense, err := scanExpense(s.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

func (s *Store) GetExpenses(ctx context.Context, ids []string) (map[string]*models.Expense, error) {
	expenses := make(map[string]*models.Expense, len(ids))
	if len(ids) == 0 {
		return expenses, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ANY($1)`, ids)
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

func (s *Store) ListUserExpenses(ctx context.Context, userID string) ([]models.UserExpense, error) {
	return s.listRows(ctx, `WHERE user_id = $1 ORDER BY seq`, userID)
}

func (s *Store) ListExpenseRows(ctx context.Context, expenseID string) ([]models.UserExpense, error) {
	return s.listRows(ctx, `WHERE expense_id = $1 ORDER BY seq`, expenseID)
}

func (s *Store) listRows(ctx context.Context, where, arg string) ([]models.UserExpense, error) {
	rows, err := s.pool.Query(ctx,
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

func scanExpense(row pgx.Row) (*models.Expense, error) {
	e := &models.Expense{}
	if err := row.Scan(
		&e.ID, &e.Name, &e.Date, &e.Category, &e.TotalCost, &e.Currency, &e.PaidBy,
		&e.OriginalCurrency, &e.OriginalTotalCost, &e.ExchangeRate, &e.ConversionDate,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Date = utc(e.Date)
	e.CreatedAt = utc(e.CreatedAt)
	e.ConversionDate = utcPtr(e.ConversionDate)
	e.UpdatedAt = utcPtr(e.UpdatedAt)
	return e, nil
}

func (s *Store) AddExchangeRates(ctx context.Context, rates []models.ExchangeRate) error {
	if len(rates) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range rates {
		batch.Queue(`INSERT INTO exchange_rates (currency, rate, date) VALUES ($1, $2, $3)`,
			r.Currency, r.Rate, utc(r.Date))
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert exchange rates: %w", err)
		}
		return nil
	})
}

func (s *Store) LatestExchangeRate(ctx context.Context, currency string) (*models.ExchangeRate, error) {
	rate := &models.ExchangeRate{}
	err := s.pool.QueryRow(ctx,
		`SELECT currency, rate, date FROM exchange_rates
		 WHERE currency = $1
		 ORDER BY date DESC, id DESC
		 LIMIT 1`, currency,
	).Scan(&rate.Currency, &rate.Rate, &rate.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	rate.Date = utc(rate.Date)
	return rate, nil
}
