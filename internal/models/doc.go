// Package models defines the core domain records for ExpenseMate.
//
// # Records
//
//   - User: an identity known to the app, keyed by the identity provider's token identifier
//   - Connection: an accepted pairing between two users, created from an Invitation
//   - Expense: a shared cost, always stored in the canonical currency (USD)
//   - UserExpense: one ledger participation row per (user, expense)
//   - Invitation: a single-use, time-limited token that creates a Connection
//   - ExchangeRate: append-only rate rows, latest per currency wins
//   - AuditLog: immutable history entry for an expense, fanned out to its participants
//
// # Design Principles
//
// 1. Records reference each other by ID string, never by pointer.
// 2. Records are plain snapshots. Services and the ledger read them; only the
//    storage layer writes them.
// 3. Optional values are pointers so "absent" is distinct from the zero value.
package models
