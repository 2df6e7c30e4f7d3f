package service

import (
	"context"
	"math"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/models"
)

func seedRate(t *testing.T, env *testEnv, code string, rate float64) {
	t.Helper()
	err := env.store.AddExchangeRates(context.Background(), []models.ExchangeRate{
		{Currency: code, Rate: rate, Date: time.Now().UTC().Add(-time.Hour)},
	})
	if err != nil {
		t.Fatalf("AddExchangeRates failed: %v", err)
	}
}

func createExpense(t *testing.T, c *clients, req *api.CreateExpenseRequest) api.Expense {
	t.Helper()
	resp, err := c.expenses.CreateExpense(context.Background(), connect.NewRequest(req))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func sharedExpenses(t *testing.T, c *clients, connectionID string) *api.GetSharedExpensesResponse {
	t.Helper()
	resp, err := c.connections.GetSharedExpenses(context.Background(), connect.NewRequest(&api.GetSharedExpensesRequest{ConnectionID: connectionID}))
	if err != nil {
		t.Fatalf("GetSharedExpenses failed: %v", err)
	}
	return resp.Msg
}

func auditLogs(t *testing.T, c *clients, expenseID string) []api.AuditLog {
	t.Helper()
	resp, err := c.activity.GetExpenseAuditLogs(context.Background(), connect.NewRequest(&api.GetExpenseAuditLogsRequest{ExpenseID: expenseID}))
	if err != nil {
		t.Fatalf("GetExpenseAuditLogs failed: %v", err)
	}
	return resp.Msg.Logs
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCreateExpenseBalances(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	conn := env.link(alice, bob)

	createExpense(t, alice, &api.CreateExpenseRequest{
		ConnectionID: conn.ID,
		Name:         "Dinner",
		Date:         timeOf("2024-03-01"),
		TotalCost:    100,
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	})
	createExpense(t, alice, &api.CreateExpenseRequest{
		ConnectionID: conn.ID,
		Name:         "Tickets",
		Date:         timeOf("2024-03-05"),
		TotalCost:    30,
		PaymentType:  "they_paid_total_you_owe",
	})

	mine := sharedExpenses(t, alice, conn.ID)
	if mine.OtherUserName != "Bob" {
		t.Errorf("other user: expected 'Bob', got %q", mine.OtherUserName)
	}
	// +50 for dinner, -30 for tickets.
	if !almostEqual(mine.TotalBalance, 20) {
		t.Errorf("alice balance: expected 20, got %v", mine.TotalBalance)
	}
	if len(mine.Expenses) != 2 || mine.Expenses[0].Expense.Name != "Tickets" {
		t.Fatalf("expenses: expected Tickets first, got %+v", mine.Expenses)
	}
	if mine.Expenses[0].Expense.PaidBy != bob.user.ID {
		t.Errorf("tickets payer: expected bob, got %s", mine.Expenses[0].Expense.PaidBy)
	}

	theirs := sharedExpenses(t, bob, conn.ID)
	if !almostEqual(theirs.TotalBalance, -20) {
		t.Errorf("bob balance: expected -20, got %v", theirs.TotalBalance)
	}

	listed, err := bob.connections.ListConnectedUsers(context.Background(), connect.NewRequest(&api.ListConnectedUsersRequest{}))
	if err != nil {
		t.Fatalf("ListConnectedUsers failed: %v", err)
	}
	if len(listed.Msg.Users) != 1 || !almostEqual(listed.Msg.Users[0].TotalBalance, -20) {
		t.Errorf("connected users: got %+v", listed.Msg.Users)
	}
	if listed.Msg.Users[0].Name != "Alice" {
		t.Errorf("name: expected 'Alice', got %q", listed.Msg.Users[0].Name)
	}

	if env.publisher.count() != 2 {
		t.Errorf("published: expected 2, got %d", env.publisher.count())
	}
}

func TestCreateExpenseErrors(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	carol := env.signIn("carol", "Carol")
	conn := env.link(alice, bob)
	ctx := context.Background()

	base := func() *api.CreateExpenseRequest {
		return &api.CreateExpenseRequest{
			ConnectionID: conn.ID,
			Name:         "Groceries",
			Date:         timeOf("2024-04-01"),
			TotalCost:    40,
			PaidBy:       alice.user.ID,
			SplitEqually: boolPtr(true),
		}
	}

	tests := []struct {
		name   string
		client *clients
		mutate func(*api.CreateExpenseRequest)
		code   connect.Code
	}{
		{"zero total", alice, func(r *api.CreateExpenseRequest) { r.TotalCost = 0 }, connect.CodeInvalidArgument},
		{"missing name", alice, func(r *api.CreateExpenseRequest) { r.Name = "" }, connect.CodeInvalidArgument},
		{"payer outside connection", alice, func(r *api.CreateExpenseRequest) { r.PaidBy = carol.user.ID }, connect.CodeInvalidArgument},
		{"unknown payment type", alice, func(r *api.CreateExpenseRequest) { r.PaymentType = "everyone_paid" }, connect.CodeInvalidArgument},
		{"missing split selector", alice, func(r *api.CreateExpenseRequest) { r.SplitEqually = nil }, connect.CodeInvalidArgument},
		{"unknown connection", alice, func(r *api.CreateExpenseRequest) { r.ConnectionID = "missing" }, connect.CodeNotFound},
		{"not a member", carol, func(r *api.CreateExpenseRequest) {}, connect.CodePermissionDenied},
		{"rate unavailable", alice, func(r *api.CreateExpenseRequest) { r.Currency = "GBP" }, connect.CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(req)
			_, err := tt.client.expenses.CreateExpense(ctx, connect.NewRequest(req))
			assertCode(t, err, tt.code)
		})
	}

	if got := sharedExpenses(t, alice, conn.ID); len(got.Expenses) != 0 {
		t.Errorf("expected no expenses after failed creates, got %d", len(got.Expenses))
	}
}

func TestExpenseCurrencyRoundTrip(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	conn := env.link(alice, bob)
	seedRate(t, env, "EUR", 0.8)
	ctx := context.Background()

	expense := createExpense(t, alice, &api.CreateExpenseRequest{
		ConnectionID: conn.ID,
		Name:         "Hotel",
		Date:         timeOf("2024-05-10"),
		TotalCost:    80,
		Currency:     "eur",
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	})
	if expense.Currency != "USD" || !almostEqual(expense.TotalCost, 100) {
		t.Errorf("canonical: expected 100 USD, got %v %s", expense.TotalCost, expense.Currency)
	}
	if expense.OriginalCurrency == nil || *expense.OriginalCurrency != "EUR" {
		t.Fatalf("original currency: expected EUR, got %v", expense.OriginalCurrency)
	}
	if expense.OriginalTotalCost == nil || *expense.OriginalTotalCost != 80 {
		t.Errorf("original total: expected 80, got %v", expense.OriginalTotalCost)
	}
	if expense.ExchangeRate == nil || *expense.ExchangeRate != 0.8 || expense.ConversionDate == nil {
		t.Errorf("rate fields: got %v %v", expense.ExchangeRate, expense.ConversionDate)
	}

	// A rename keeps the stored conversion.
	renamed, err := alice.expenses.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ID:           expense.ID,
		ConnectionID: conn.ID,
		Name:         strPtr("Hotel Paris"),
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	}))
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if renamed.Msg.Expense.OriginalCurrency == nil || !almostEqual(renamed.Msg.Expense.TotalCost, 100) {
		t.Errorf("rename: expected conversion kept, got %+v", renamed.Msg.Expense)
	}

	// Switching to USD clears the whole original-currency group.
	back, err := alice.expenses.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ID:           expense.ID,
		ConnectionID: conn.ID,
		Currency:     strPtr("USD"),
		TotalCost:    floatPtr(90),
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	}))
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	got := back.Msg.Expense
	if got.OriginalCurrency != nil || got.OriginalTotalCost != nil || got.ExchangeRate != nil || got.ConversionDate != nil {
		t.Errorf("expected original fields cleared, got %+v", got)
	}
	if !almostEqual(got.TotalCost, 90) {
		t.Errorf("total: expected 90, got %v", got.TotalCost)
	}

	shared := sharedExpenses(t, bob, conn.ID)
	if !almostEqual(shared.TotalBalance, -45) {
		t.Errorf("bob balance: expected -45, got %v", shared.TotalBalance)
	}
}

func TestExpenseSwitchToCanonicalKeepsTotal(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	conn := env.link(alice, bob)
	seedRate(t, env, "EUR", 0.8)

	expense := createExpense(t, alice, &api.CreateExpenseRequest{
		ConnectionID: conn.ID,
		Name:         "Hotel",
		Date:         timeOf("2024-05-10"),
		TotalCost:    80,
		Currency:     "EUR",
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	})

	resp, err := alice.expenses.UpdateExpense(context.Background(), connect.NewRequest(&api.UpdateExpenseRequest{
		ID:           expense.ID,
		ConnectionID: conn.ID,
		Currency:     strPtr("USD"),
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	}))
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	got := resp.Msg.Expense
	if got.Currency != "USD" || !almostEqual(got.TotalCost, 100) {
		t.Errorf("expected converted 100 USD kept, got %v %s", got.TotalCost, got.Currency)
	}
	if got.OriginalCurrency != nil || got.OriginalTotalCost != nil || got.ExchangeRate != nil || got.ConversionDate != nil {
		t.Errorf("expected original fields cleared, got %+v", got)
	}

	shared := sharedExpenses(t, bob, conn.ID)
	if !almostEqual(shared.TotalBalance, -50) {
		t.Errorf("bob balance: expected -50, got %v", shared.TotalBalance)
	}
}

func TestUpdateExpenseRateUnavailable(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	conn := env.link(alice, bob)

	expense := createExpense(t, alice, &api.CreateExpenseRequest{
		ConnectionID: conn.ID,
		Name:         "Dinner",
		Date:         timeOf("2024-05-10"),
		TotalCost:    60,
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	})

	_, err := alice.expenses.UpdateExpense(context.Background(), connect.NewRequest(&api.UpdateExpenseRequest{
		ID:           expense.ID,
		ConnectionID: conn.ID,
		Name:         strPtr("Dinner in London"),
		Currency:     strPtr("GBP"),
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	}))
	assertCode(t, err, connect.CodeUnavailable)

	shared := sharedExpenses(t, bob, conn.ID)
	if len(shared.Expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(shared.Expenses))
	}
	got := shared.Expenses[0].Expense
	if got.Name != "Dinner" || got.Currency != "USD" || !almostEqual(got.TotalCost, 60) || got.OriginalCurrency != nil {
		t.Errorf("expected row unchanged, got %+v", got)
	}
	if !almostEqual(shared.TotalBalance, -30) {
		t.Errorf("bob balance: expected -30, got %v", shared.TotalBalance)
	}
	if logs := auditLogs(t, alice, expense.ID); len(logs) != 1 {
		t.Errorf("expected only the create entry, got %d", len(logs))
	}
}

func TestUpdateExpenseAudit(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	conn := env.link(alice, bob)
	ctx := context.Background()

	expense := createExpense(t, alice, &api.CreateExpenseRequest{
		ConnectionID: conn.ID,
		Name:         "Taxi",
		Date:         timeOf("2024-06-01"),
		Category:     strPtr("transport"),
		TotalCost:    24,
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	})

	noop, err := bob.expenses.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ID:           expense.ID,
		ConnectionID: conn.ID,
		Name:         strPtr("Taxi"),
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	}))
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if noop.Msg.Logged {
		t.Error("expected an unchanged update not to be logged")
	}
	if logs := auditLogs(t, bob, expense.ID); len(logs) != 1 {
		t.Fatalf("logs: expected 1, got %d", len(logs))
	}

	changed, err := bob.expenses.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ID:           expense.ID,
		ConnectionID: conn.ID,
		PaidBy:       bob.user.ID,
		SplitEqually: boolPtr(false),
	}))
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if !changed.Msg.Logged {
		t.Error("expected update to be logged")
	}

	logs := auditLogs(t, alice, expense.ID)
	if len(logs) != 2 {
		t.Fatalf("logs: expected 2, got %d", len(logs))
	}
	latest := logs[0]
	if latest.Action != "update" || latest.ActorName != "Bob" {
		t.Errorf("latest: expected update by Bob, got %s by %s", latest.Action, latest.ActorName)
	}
	keys := map[string]bool{}
	for _, c := range latest.Changes {
		keys[c.Key] = true
	}
	if !keys["paidBy"] || !keys["split"] || keys["name"] {
		t.Errorf("changed keys: got %v", keys)
	}
	if logs[1].Action != "create" || logs[1].ActorName != "Alice" {
		t.Errorf("first: expected create by Alice, got %s by %s", logs[1].Action, logs[1].ActorName)
	}

	// Bob paid and Alice owes the whole total.
	if got := sharedExpenses(t, alice, conn.ID); !almostEqual(got.TotalBalance, -24) {
		t.Errorf("alice balance: expected -24, got %v", got.TotalBalance)
	}

	cleared, err := alice.expenses.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ID:           expense.ID,
		ConnectionID: conn.ID,
		Category:     strPtr(""),
		PaymentType:  "they_paid_total_you_owe",
	}))
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if cleared.Msg.Expense.Category != nil {
		t.Errorf("category: expected cleared, got %v", *cleared.Msg.Expense.Category)
	}
}

func TestUpdateExpenseOutsideConnection(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	carol := env.signIn("carol", "Carol")
	withBob := env.link(alice, bob)
	withCarol := env.link(alice, carol)
	ctx := context.Background()

	expense := createExpense(t, alice, &api.CreateExpenseRequest{
		ConnectionID: withBob.ID,
		Name:         "Lunch",
		Date:         timeOf("2024-07-01"),
		TotalCost:    18,
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	})

	_, err := alice.expenses.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ID:           expense.ID,
		ConnectionID: withCarol.ID,
		Name:         strPtr("Lunch with Carol"),
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	_, err = alice.expenses.UpdateExpense(ctx, connect.NewRequest(&api.UpdateExpenseRequest{
		ID:           "missing",
		ConnectionID: withBob.ID,
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = carol.expenses.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ID: expense.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = carol.activity.GetExpenseAuditLogs(ctx, connect.NewRequest(&api.GetExpenseAuditLogsRequest{ExpenseID: expense.ID}))
	assertCode(t, err, connect.CodePermissionDenied)
}

func TestDeleteExpenseKeepsHistory(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	conn := env.link(alice, bob)
	ctx := context.Background()

	expense := createExpense(t, alice, &api.CreateExpenseRequest{
		ConnectionID: conn.ID,
		Name:         "Concert",
		Date:         timeOf("2024-08-01"),
		TotalCost:    60,
		PaidBy:       alice.user.ID,
		SplitEqually: boolPtr(true),
	})

	if _, err := bob.expenses.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ID: expense.ID})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	mine, err := alice.expenses.GetMyExpenses(ctx, connect.NewRequest(&api.GetMyExpensesRequest{}))
	if err != nil {
		t.Fatalf("GetMyExpenses failed: %v", err)
	}
	if len(mine.Msg.Expenses) != 0 {
		t.Errorf("expenses: expected none, got %d", len(mine.Msg.Expenses))
	}

	logs := auditLogs(t, alice, expense.ID)
	if len(logs) != 2 || logs[0].Action != "delete" {
		t.Fatalf("logs: expected delete then create, got %+v", logs)
	}

	_, err = bob.expenses.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ID: expense.ID}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestGetMyExpensesOrder(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signIn("alice", "Alice")
	bob := env.signIn("bob", "Bob")
	carol := env.signIn("carol", "Carol")
	withBob := env.link(alice, bob)
	withCarol := env.link(carol, alice)

	for _, e := range []struct {
		conn string
		name string
		date string
	}{
		{withBob.ID, "Older", "2024-01-01"},
		{withCarol.ID, "Newest", "2024-03-01"},
		{withBob.ID, "Middle", "2024-02-01"},
	} {
		createExpense(t, alice, &api.CreateExpenseRequest{
			ConnectionID: e.conn,
			Name:         e.name,
			Date:         timeOf(e.date),
			TotalCost:    10,
			PaidBy:       alice.user.ID,
			SplitEqually: boolPtr(true),
		})
	}

	resp, err := alice.expenses.GetMyExpenses(context.Background(), connect.NewRequest(&api.GetMyExpensesRequest{}))
	if err != nil {
		t.Fatalf("GetMyExpenses failed: %v", err)
	}
	var names []string
	for _, e := range resp.Msg.Expenses {
		names = append(names, e.Name)
	}
	if len(names) != 3 || names[0] != "Newest" || names[1] != "Middle" || names[2] != "Older" {
		t.Errorf("order: got %v", names)
	}
}
