package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/expensemate/internal/models"
)

// AddExchangeRates appends rate observations.
func (s *SQLiteStore) AddExchangeRates(ctx context.Context, rates []models.ExchangeRate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO exchange_rates (currency, rate, date) VALUES (?, ?, ?)`,
			r.Currency, r.Rate, toNanos(r.Date),
		); err != nil {
			return fmt.Errorf("failed to insert exchange rate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LatestExchangeRate returns the newest rate for the currency, or nil when
// none is stored.
func (s *SQLiteStore) LatestExchangeRate(ctx context.Context, currency string) (*models.ExchangeRate, error) {
	rate := &models.ExchangeRate{}
	var date int64
	err := s.db.QueryRowContext(ctx,
		`SELECT currency, rate, date FROM exchange_rates
		 WHERE currency = ?
		 ORDER BY date DESC, id DESC
		 LIMIT 1`, currency,
	).Scan(&rate.Currency, &rate.Rate, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	rate.Date = fromNanos(date)
	return rate, nil
}
