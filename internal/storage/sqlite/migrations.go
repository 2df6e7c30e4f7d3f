package sqlite

import "database/sql"

// schema sets up the database. It runs on startup to ensure tables exist.
// audit_logs.expense_id is not a foreign key; entries remain after the
// expense is deleted.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    token_identifier TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS connections (
    id TEXT PRIMARY KEY,
    inviter_user_id TEXT NOT NULL REFERENCES users(id),
    invitee_user_id TEXT NOT NULL REFERENCES users(id),
    accepted_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS invitations (
    token TEXT PRIMARY KEY,
    inviter_user_id TEXT NOT NULL REFERENCES users(id),
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL,
    is_used INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    date INTEGER NOT NULL,
    category TEXT,
    total_cost REAL NOT NULL,
    currency TEXT NOT NULL DEFAULT 'USD',
    paid_by TEXT NOT NULL,
    original_currency TEXT,
    original_total_cost REAL,
    exchange_rate REAL,
    conversion_date INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER
);

CREATE TABLE IF NOT EXISTS user_expenses (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    expense_id TEXT NOT NULL REFERENCES expenses(id),
    amount_paid REAL NOT NULL,
    amount_owed REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS exchange_rates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    currency TEXT NOT NULL,
    rate REAL NOT NULL,
    date INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_logs (
    id TEXT PRIMARY KEY,
    expense_id TEXT NOT NULL,
    actor_user_id TEXT NOT NULL,
    action TEXT NOT NULL,
    changes TEXT NOT NULL,
    note TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log_recipients (
    audit_log_id TEXT NOT NULL REFERENCES audit_logs(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    PRIMARY KEY (audit_log_id, user_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_password_email ON users(email) WHERE password_hash != '';
CREATE INDEX IF NOT EXISTS idx_connections_inviter ON connections(inviter_user_id);
CREATE INDEX IF NOT EXISTS idx_connections_invitee ON connections(invitee_user_id);
CREATE INDEX IF NOT EXISTS idx_invitations_inviter ON invitations(inviter_user_id);
CREATE INDEX IF NOT EXISTS idx_user_expenses_user ON user_expenses(user_id);
CREATE INDEX IF NOT EXISTS idx_user_expenses_expense ON user_expenses(expense_id);
CREATE INDEX IF NOT EXISTS idx_exchange_rates_currency ON exchange_rates(currency, date);
CREATE INDEX IF NOT EXISTS idx_audit_logs_expense ON audit_logs(expense_id, created_at);
CREATE INDEX IF NOT EXISTS idx_audit_log_recipients_user ON audit_log_recipients(user_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
