package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type migration struct {
	name string
	sql  string
}

// migrations are applied in order once each and recorded in schema_migrations.
var migrations = []migration{
	{"0001_init", `
CREATE TABLE users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    token_identifier TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE connections (
    id TEXT PRIMARY KEY,
    inviter_user_id TEXT NOT NULL REFERENCES users(id),
    invitee_user_id TEXT NOT NULL REFERENCES users(id),
    accepted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX idx_connections_inviter ON connections(inviter_user_id);
CREATE INDEX idx_connections_invitee ON connections(invitee_user_id);

CREATE TABLE invitations (
    token TEXT PRIMARY KEY,
    inviter_user_id TEXT NOT NULL REFERENCES users(id),
    created_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    is_used BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX idx_invitations_inviter ON invitations(inviter_user_id);

CREATE TABLE expenses (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    date TIMESTAMPTZ NOT NULL,
    category TEXT,
    total_cost DOUBLE PRECISION NOT NULL,
    currency TEXT NOT NULL DEFAULT 'USD',
    paid_by TEXT NOT NULL,
    original_currency TEXT,
    original_total_cost DOUBLE PRECISION,
    exchange_rate DOUBLE PRECISION,
    conversion_date TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ
);

CREATE TABLE user_expenses (
    seq BIGSERIAL UNIQUE,
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    expense_id TEXT NOT NULL REFERENCES expenses(id),
    amount_paid DOUBLE PRECISION NOT NULL,
    amount_owed DOUBLE PRECISION NOT NULL
);
CREATE INDEX idx_user_expenses_user ON user_expenses(user_id);
CREATE INDEX idx_user_expenses_expense ON user_expenses(expense_id);

CREATE TABLE exchange_rates (
    id BIGSERIAL PRIMARY KEY,
    currency TEXT NOT NULL,
    rate DOUBLE PRECISION NOT NULL,
    date TIMESTAMPTZ NOT NULL
);
CREATE INDEX idx_exchange_rates_currency ON exchange_rates(currency, date);

CREATE TABLE audit_logs (
    seq BIGSERIAL UNIQUE,
    id TEXT PRIMARY KEY,
    expense_id TEXT NOT NULL,
    actor_user_id TEXT NOT NULL,
    action TEXT NOT NULL,
    changes JSONB NOT NULL,
    note TEXT,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX idx_audit_logs_expense ON audit_logs(expense_id, created_at);

CREATE TABLE audit_log_recipients (
    audit_log_id TEXT NOT NULL REFERENCES audit_logs(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    PRIMARY KEY (audit_log_id, user_id)
);
CREATE INDEX idx_audit_log_recipients_user ON audit_log_recipients(user_id);
`},
	{"0002_password_email", `
CREATE UNIQUE INDEX idx_users_password_email ON users(email) WHERE password_hash <> '';
`},
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		if err := pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name = $1)`, m.name,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", m.name, err)
		}
		if exists {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, m.sql); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations(name) VALUES($1)`, m.name); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}
