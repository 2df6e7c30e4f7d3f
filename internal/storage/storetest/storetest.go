// Package storetest is a conformance suite run against every storage.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

// Factory returns an empty, migrated store. The suite closes it.
type Factory func(t *testing.T) storage.Store

// Run executes the suite. Every subtest gets a fresh store.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"Users", testUsers},
		{"Invitations", testInvitations},
		{"AcceptInvitationCheckFails", testAcceptInvitationCheckFails},
		{"Expenses", testExpenses},
		{"DeleteExpenseKeepsHistory", testDeleteExpenseKeepsHistory},
		{"DeleteConnection", testDeleteConnection},
		{"ExchangeRates", testExchangeRates},
		{"AuditFanOut", testAuditFanOut},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close() })
			tc.fn(t, s)
		})
	}
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func mustUser(t *testing.T, s storage.Store, name string) *models.User {
	t.Helper()
	u := models.NewUser("test|"+uuid.NewString(), name, name+"@example.com")
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func mustConnection(t *testing.T, s storage.Store, inviter, invitee *models.User) *models.Connection {
	t.Helper()
	ctx := context.Background()
	inv := &models.Invitation{
		Token:         uuid.NewString(),
		InviterUserID: inviter.ID,
		CreatedAt:     base,
		ExpiresAt:     base.Add(24 * time.Hour),
	}
	require.NoError(t, s.CreateInvitation(ctx, inv))
	conn, err := s.AcceptInvitation(ctx, inv.Token, invitee.ID, base, func(*models.Invitation) error { return nil })
	require.NoError(t, err)
	return conn
}

func mustExpense(t *testing.T, s storage.Store, name string, date time.Time, total float64, payer, other *models.User) *models.Expense {
	t.Helper()
	e := &models.Expense{
		ID:        uuid.NewString(),
		Name:      name,
		Date:      date,
		TotalCost: total,
		Currency:  "USD",
		PaidBy:    payer.ID,
		CreatedAt: base,
	}
	rows := []models.UserExpense{
		{UserID: payer.ID, AmountPaid: total, AmountOwed: total / 2},
		{UserID: other.ID, AmountPaid: 0, AmountOwed: total / 2},
	}
	entry := &models.AuditLog{
		ID:          uuid.NewString(),
		ExpenseID:   e.ID,
		ActorUserID: payer.ID,
		Action:      models.AuditCreate,
		Changes:     []models.FieldChange{},
		CreatedAt:   date,
		Recipients:  []string{payer.ID, other.ID},
	}
	require.NoError(t, s.CreateExpense(context.Background(), e, rows, entry))
	return e
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")

	got, err := s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Name, got.Name)
	assert.Equal(t, alice.TokenIdentifier, got.TokenIdentifier)
	assert.WithinDuration(t, alice.CreatedAt, got.CreatedAt, time.Millisecond)

	got, err = s.GetUserByTokenIdentifier(ctx, alice.TokenIdentifier)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = s.GetUser(ctx, "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)

	// Only password accounts are found by email.
	_, err = s.GetUserByEmail(ctx, alice.Email)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	alice.PasswordHash = "hash"
	alice.Name = "Alice"
	alice.UpdatedAt = base
	require.NoError(t, s.UpdateUser(ctx, alice))

	got, err = s.GetUserByEmail(ctx, alice.Email)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "hash", got.PasswordHash)

	// An external account may share the address; a second password account may not.
	external := models.NewUser("oauth|"+uuid.NewString(), "Alice OAuth", alice.Email)
	require.NoError(t, s.CreateUser(ctx, external))
	got, err = s.GetUserByEmail(ctx, alice.Email)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	dup := models.NewUser("password|"+uuid.NewString(), "Other", alice.Email)
	dup.PasswordHash = "other"
	assert.Error(t, s.CreateUser(ctx, dup))

	bob := mustUser(t, s, "bob")
	users, err := s.GetUsers(ctx, []string{alice.ID, bob.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "bob", users[bob.ID].Name)

	users, err = s.GetUsers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func testInvitations(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	inv := &models.Invitation{
		Token:         "tok-1",
		InviterUserID: alice.ID,
		CreatedAt:     base,
		ExpiresAt:     base.Add(24 * time.Hour),
	}
	require.NoError(t, s.CreateInvitation(ctx, inv))

	got, err := s.GetInvitation(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, got.IsUsed)
	assert.True(t, inv.ExpiresAt.Equal(got.ExpiresAt))

	check := func(inv *models.Invitation) error { return inv.CheckAcceptable(bob.ID, base) }

	conn, err := s.AcceptInvitation(ctx, "tok-1", bob.ID, base, check)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, conn.InviterUserID)
	assert.Equal(t, bob.ID, conn.InviteeUserID)

	got, err = s.GetInvitation(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, got.IsUsed)

	_, err = s.AcceptInvitation(ctx, "tok-1", bob.ID, base, check)
	assert.ErrorIs(t, err, models.ErrInvitationUsed)

	_, err = s.AcceptInvitation(ctx, "missing", bob.ID, base, check)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	conns, err := s.ListConnections(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, conn.ID, conns[0].ID)

	stored, err := s.GetConnection(ctx, conn.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasMember(alice.ID))

	// Expire then sweep.
	require.NoError(t, s.CreateInvitation(ctx, &models.Invitation{
		Token: "tok-2", InviterUserID: alice.ID, CreatedAt: base, ExpiresAt: base.Add(time.Hour),
	}))
	require.NoError(t, s.CreateInvitation(ctx, &models.Invitation{
		Token: "tok-3", InviterUserID: bob.ID, CreatedAt: base, ExpiresAt: base.Add(time.Hour),
	}))

	n, err := s.ExpireInvitations(ctx, alice.ID, time.Unix(0, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = s.DeleteExpiredInvitations(ctx, base)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s.GetInvitation(ctx, "tok-2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetInvitation(ctx, "tok-3")
	assert.NoError(t, err)
}

func testAcceptInvitationCheckFails(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	require.NoError(t, s.CreateInvitation(ctx, &models.Invitation{
		Token: "old", InviterUserID: alice.ID, CreatedAt: base, ExpiresAt: base.Add(-time.Minute),
	}))

	_, err := s.AcceptInvitation(ctx, "old", bob.ID, base, func(inv *models.Invitation) error {
		return inv.CheckAcceptable(bob.ID, base)
	})
	assert.ErrorIs(t, err, models.ErrInvitationExpired)

	inv, err := s.GetInvitation(ctx, "old")
	require.NoError(t, err)
	assert.False(t, inv.IsUsed)

	conns, err := s.ListConnections(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func testExpenses(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	e := mustExpense(t, s, "Dinner", base, 60, alice, bob)

	got, err := s.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dinner", got.Name)
	assert.Equal(t, 60.0, got.TotalCost)
	assert.True(t, base.Equal(got.Date))
	assert.Nil(t, got.Category)
	assert.Nil(t, got.OriginalCurrency)
	assert.Nil(t, got.UpdatedAt)

	rows, err := s.ListExpenseRows(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	aliceRows, err := s.ListUserExpenses(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceRows, 1)
	assert.Equal(t, 60.0, aliceRows[0].AmountPaid)
	assert.Equal(t, 30.0, aliceRows[0].AmountOwed)

	// Foreign currency update with new amounts.
	eur := "EUR"
	orig := 80.0
	rate := 0.8
	updated := base.Add(time.Hour)
	got.Name = "Late dinner"
	got.TotalCost = 100
	got.OriginalCurrency = &eur
	got.OriginalTotalCost = &orig
	got.ExchangeRate = &rate
	got.ConversionDate = &base
	got.UpdatedAt = &updated
	for i := range rows {
		if rows[i].UserID == alice.ID {
			rows[i].AmountPaid, rows[i].AmountOwed = 0, 50
		} else {
			rows[i].AmountPaid, rows[i].AmountOwed = 100, 50
		}
	}
	require.NoError(t, s.UpdateExpense(ctx, got, rows, nil))

	got, err = s.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Late dinner", got.Name)
	require.NotNil(t, got.OriginalCurrency)
	assert.Equal(t, "EUR", *got.OriginalCurrency)
	require.NotNil(t, got.ExchangeRate)
	assert.Equal(t, 0.8, *got.ExchangeRate)
	require.NotNil(t, got.ConversionDate)
	assert.True(t, base.Equal(*got.ConversionDate))
	require.NotNil(t, got.UpdatedAt)

	rows, err = s.ListExpenseRows(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "update never resizes")

	expenses, err := s.GetExpenses(ctx, []string{e.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, expenses, 1)

	_, err = s.GetExpense(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Update with no audit entry leaves the history untouched.
	logs, err := s.ListAuditLogsForExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func testDeleteExpenseKeepsHistory(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	e := mustExpense(t, s, "Taxi", base, 20, bob, alice)

	entry := &models.AuditLog{
		ID:          uuid.NewString(),
		ExpenseID:   e.ID,
		ActorUserID: alice.ID,
		Action:      models.AuditDelete,
		Changes:     []models.FieldChange{},
		CreatedAt:   base.Add(time.Minute),
		Recipients:  []string{alice.ID, bob.ID},
	}
	require.NoError(t, s.DeleteExpense(ctx, e.ID, entry))

	_, err := s.GetExpense(ctx, e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	rows, err := s.ListExpenseRows(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	logs, err := s.ListAuditLogsForExpense(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditDelete, logs[0].Action)
	assert.Equal(t, models.AuditCreate, logs[1].Action)

	err = s.DeleteExpense(ctx, e.ID, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testDeleteConnection(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	carol := mustUser(t, s, "carol")

	ab := mustConnection(t, s, alice, bob)
	mustConnection(t, s, alice, carol)

	e1 := mustExpense(t, s, "Groceries", base, 40, alice, bob)
	e2 := mustExpense(t, s, "Cinema", base, 24, bob, alice)
	keep := mustExpense(t, s, "Brunch", base, 30, alice, carol)

	require.NoError(t, s.DeleteConnection(ctx, ab.ID, []string{e1.ID, e2.ID}))

	_, err := s.GetConnection(ctx, ab.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	bobRows, err := s.ListUserExpenses(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobRows)

	aliceRows, err := s.ListUserExpenses(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceRows, 1)
	assert.Equal(t, keep.ID, aliceRows[0].ExpenseID)

	conns, err := s.ListConnections(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, conns, 1)

	err = s.DeleteConnection(ctx, ab.ID, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testExchangeRates(t *testing.T, s storage.Store) {
	ctx := context.Background()

	rate, err := s.LatestExchangeRate(ctx, "EUR")
	require.NoError(t, err)
	assert.Nil(t, rate)

	require.NoError(t, s.AddExchangeRates(ctx, []models.ExchangeRate{
		{Currency: "EUR", Rate: 0.91, Date: base},
		{Currency: "EUR", Rate: 0.93, Date: base.Add(24 * time.Hour)},
		{Currency: "GBP", Rate: 0.79, Date: base},
	}))

	rate, err = s.LatestExchangeRate(ctx, "EUR")
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 0.93, rate.Rate)
	assert.True(t, base.Add(24*time.Hour).Equal(rate.Date))
}

func testAuditFanOut(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	carol := mustUser(t, s, "carol")

	first := mustExpense(t, s, "Coffee", base, 8, alice, bob)
	second := mustExpense(t, s, "Lunch", base.Add(time.Hour), 30, carol, alice)

	feed, err := s.ListAuditLogsForRecipient(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, second.ID, feed[0].ExpenseID, "newest first")
	assert.Equal(t, first.ID, feed[1].ExpenseID)
	assert.ElementsMatch(t, []string{alice.ID, carol.ID}, feed[0].Recipients)

	pair, err := s.ListAuditLogsForPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, pair, 1)
	assert.Equal(t, first.ID, pair[0].ExpenseID)

	none, err := s.ListAuditLogsForPair(ctx, bob.ID, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
