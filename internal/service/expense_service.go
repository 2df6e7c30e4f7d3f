package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/audit"
	"github.com/mmynk/expensemate/internal/currency"
	"github.com/mmynk/expensemate/internal/ledger"
	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

// Converter normalizes amounts into the canonical currency.
type Converter interface {
	ToCanonical(ctx context.Context, code string, amount float64) (currency.Conversion, error)
}

// ExpenseService implements the ExpenseService RPC interface.
type ExpenseService struct {
	store     storage.Store
	converter Converter
	publisher ActivityPublisher
	logger    *slog.Logger
	now       func() time.Time
}

var _ api.ExpenseServiceHandler = (*ExpenseService)(nil)

// NewExpenseService creates a new expense service. publisher may be nil.
func NewExpenseService(store storage.Store, converter Converter, publisher ActivityPublisher, logger *slog.Logger) *ExpenseService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &ExpenseService{
		store:     store,
		converter: converter,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateExpense records a new expense between the caller and a connection.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	msg := req.Msg
	s.logger.Info("CreateExpense request received",
		"connection_id", msg.ConnectionID,
		"name", msg.Name,
		"total_cost", msg.TotalCost,
		"currency", msg.Currency,
	)

	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	conn, err := memberConnection(ctx, s.store, msg.ConnectionID, me.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	payerID, mode, err := resolvePayer(me.ID, conn, msg.PaidBy, msg.SplitEqually, msg.PaymentType)
	if err != nil {
		return nil, toConnectError(err)
	}

	conv, err := s.converter.ToCanonical(ctx, msg.Currency, msg.TotalCost)
	if err != nil {
		s.logger.Warn("Currency conversion failed", "currency", msg.Currency, "error", err)
		return nil, toConnectError(err)
	}

	expense := &models.Expense{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(msg.Name),
		Date:      msg.Date.UTC(),
		Category:  nonEmpty(msg.Category),
		PaidBy:    payerID,
		CreatedAt: s.now().UTC(),
	}
	conv.Apply(expense)

	rows := splitRows(expense.TotalCost, mode, payerID, conn.OtherUserID(payerID))

	entry, _ := audit.NewEntry(models.AuditCreate, expense.ID, me.ID, nil,
		audit.WithSplit(audit.ExpenseSnapshot(expense), mode.String()))
	entry.Recipients = []string{conn.InviterUserID, conn.InviteeUserID}

	if err := s.store.CreateExpense(ctx, expense, rows, entry); err != nil {
		s.logger.Error("CreateExpense failed", "connection_id", conn.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.publisher.PublishActivity(entry.Recipients, toAPIAuditLog(entry, me.Name))
	s.logger.Info("Expense created", "expense_id", expense.ID, "total_cost", expense.TotalCost)

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// UpdateExpense edits an expense between the members of a connection and
// recomputes both participation rows in place.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	msg := req.Msg
	s.logger.Info("UpdateExpense request received", "expense_id", msg.ID, "connection_id", msg.ConnectionID)

	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	conn, err := memberConnection(ctx, s.store, msg.ConnectionID, me.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	expense, err := s.store.GetExpense(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, toConnectError(ErrExpenseNotFound)
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	rows, err := s.store.ListExpenseRows(ctx, expense.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !rowsMatchConnection(rows, conn) {
		return nil, toConnectError(ErrExpenseNotInPair)
	}

	before := audit.WithSplit(audit.ExpenseSnapshot(expense), currentMode(rows, expense.PaidBy).String())

	payerID, mode, err := resolvePayer(me.ID, conn, msg.PaidBy, msg.SplitEqually, msg.PaymentType)
	if err != nil {
		return nil, toConnectError(err)
	}

	if msg.Name != nil && strings.TrimSpace(*msg.Name) != "" {
		expense.Name = strings.TrimSpace(*msg.Name)
	}
	if msg.Date != nil && !msg.Date.IsZero() {
		expense.Date = msg.Date.UTC()
	}
	if msg.Category != nil {
		expense.Category = nonEmpty(msg.Category)
	}
	expense.PaidBy = payerID

	// Absent currency or total keeps what the user originally entered. Only a
	// change to either re-converts with the latest rate. Switching to the
	// canonical currency without a total keeps the converted amount.
	code := expense.DisplayCurrency()
	if msg.Currency != nil {
		code = currency.Normalize(*msg.Currency)
	}
	total := expense.DisplayTotal()
	switch {
	case msg.TotalCost != nil:
		total = *msg.TotalCost
	case code == currency.Canonical:
		total = expense.TotalCost
	}
	if code != expense.DisplayCurrency() || total != expense.DisplayTotal() {
		conv, err := s.converter.ToCanonical(ctx, code, total)
		if err != nil {
			s.logger.Warn("Currency conversion failed", "currency", code, "error", err)
			return nil, toConnectError(err)
		}
		conv.Apply(expense)
	}

	payerShare, otherShare := ledger.SplitAmounts(expense.TotalCost, mode)
	for i := range rows {
		share := otherShare
		if rows[i].UserID == payerID {
			share = payerShare
		}
		rows[i].AmountPaid = share.AmountPaid
		rows[i].AmountOwed = share.AmountOwed
	}

	now := s.now().UTC()
	expense.UpdatedAt = &now

	after := audit.WithSplit(audit.ExpenseSnapshot(expense), mode.String())
	entry, logged := audit.NewEntry(models.AuditUpdate, expense.ID, me.ID, before, after)
	if logged {
		entry.Recipients = []string{conn.InviterUserID, conn.InviteeUserID}
	}

	if err := s.store.UpdateExpense(ctx, expense, rows, entry); err != nil {
		s.logger.Error("UpdateExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}

	if logged {
		s.publisher.PublishActivity(entry.Recipients, toAPIAuditLog(entry, me.Name))
	}
	s.logger.Info("Expense updated", "expense_id", expense.ID, "logged", logged)

	return connect.NewResponse(&api.UpdateExpenseResponse{
		Expense: toAPIExpense(expense),
		Logged:  logged,
	}), nil
}

// DeleteExpense removes an expense the caller participates in.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	s.logger.Info("DeleteExpense request received", "expense_id", req.Msg.ID)

	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, toConnectError(ErrExpenseNotFound)
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	rows, err := s.store.ListExpenseRows(ctx, expense.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	participant := false
	recipients := make([]string, 0, len(rows))
	for _, r := range rows {
		recipients = append(recipients, r.UserID)
		if r.UserID == me.ID {
			participant = true
		}
	}
	if !participant {
		return nil, toConnectError(ErrNotParticipant)
	}

	before := audit.WithSplit(audit.ExpenseSnapshot(expense), currentMode(rows, expense.PaidBy).String())
	entry, _ := audit.NewEntry(models.AuditDelete, expense.ID, me.ID, before, nil)
	entry.Recipients = recipients

	if err := s.store.DeleteExpense(ctx, expense.ID, entry); err != nil {
		s.logger.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.publisher.PublishActivity(entry.Recipients, toAPIAuditLog(entry, me.Name))
	s.logger.Info("Expense deleted", "expense_id", expense.ID)

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// GetMyExpenses returns every expense the caller participates in, newest first.
func (s *ExpenseService) GetMyExpenses(ctx context.Context, req *connect.Request[api.GetMyExpensesRequest]) (*connect.Response[api.GetMyExpensesResponse], error) {
	me, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	rows, err := s.store.ListUserExpenses(ctx, me.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ExpenseID
	}

	expenses, err := s.store.GetExpenses(ctx, ids)
	if err != nil {
		return nil, toConnectError(err)
	}

	list := make([]*models.Expense, 0, len(expenses))
	for _, e := range expenses {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.After(list[j].Date)
		}
		return list[i].ID < list[j].ID
	})

	out := make([]api.Expense, len(list))
	for i, e := range list {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.GetMyExpensesResponse{Expenses: out}), nil
}

// resolvePayer determines who paid and how the total splits. A legacy
// payment type is read from the caller's side and wins over paidBy.
func resolvePayer(meID string, conn *models.Connection, paidBy string, splitEqually *bool, paymentType string) (string, ledger.SplitMode, error) {
	if paymentType != "" {
		pt, err := ledger.ParsePaymentType(paymentType)
		if err != nil {
			return "", 0, ErrInvalidPaymentType
		}
		payer := meID
		if pt.Payer == ledger.PartyThem {
			payer = conn.OtherUserID(meID)
		}
		return payer, pt.Split, nil
	}

	if !conn.HasMember(paidBy) {
		return "", 0, ErrInvalidPayer
	}
	if splitEqually == nil {
		return "", 0, errMissingSplitSelector
	}
	return paidBy, ledger.SplitModeFor(*splitEqually), nil
}

func splitRows(total float64, mode ledger.SplitMode, payerID, otherID string) []models.UserExpense {
	payer, other := ledger.SplitAmounts(total, mode)
	return []models.UserExpense{
		{UserID: payerID, AmountPaid: payer.AmountPaid, AmountOwed: payer.AmountOwed},
		{UserID: otherID, AmountPaid: other.AmountPaid, AmountOwed: other.AmountOwed},
	}
}

// rowsMatchConnection reports whether rows are exactly one row per member.
func rowsMatchConnection(rows []models.UserExpense, conn *models.Connection) bool {
	if len(rows) != 2 {
		return false
	}
	a, b := rows[0].UserID, rows[1].UserID
	return (a == conn.InviterUserID && b == conn.InviteeUserID) ||
		(a == conn.InviteeUserID && b == conn.InviterUserID)
}

func currentMode(rows []models.UserExpense, payerID string) ledger.SplitMode {
	for _, r := range rows {
		if r.UserID == payerID {
			return ledger.ModeOf(ledger.Share{AmountPaid: r.AmountPaid, AmountOwed: r.AmountOwed})
		}
	}
	return ledger.SplitEqual
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
