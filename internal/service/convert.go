package service

import (
	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/models"
)

func toAPIUser(u *models.User) api.User {
	return api.User{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toAPIConnection(c *models.Connection) api.Connection {
	return api.Connection{
		ID:            c.ID,
		InviterUserID: c.InviterUserID,
		InviteeUserID: c.InviteeUserID,
		AcceptedAt:    c.AcceptedAt,
	}
}

func toAPIInvitation(inv *models.Invitation) api.Invitation {
	return api.Invitation{
		Token:         inv.Token,
		InviterUserID: inv.InviterUserID,
		CreatedAt:     inv.CreatedAt,
		ExpiresAt:     inv.ExpiresAt,
		IsUsed:        inv.IsUsed,
	}
}

func toAPIExpense(e *models.Expense) api.Expense {
	return api.Expense{
		ID:                e.ID,
		Name:              e.Name,
		Date:              e.Date,
		Category:          e.Category,
		TotalCost:         e.TotalCost,
		Currency:          e.Currency,
		PaidBy:            e.PaidBy,
		OriginalCurrency:  e.OriginalCurrency,
		OriginalTotalCost: e.OriginalTotalCost,
		ExchangeRate:      e.ExchangeRate,
		ConversionDate:    e.ConversionDate,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func toAPIAuditLog(l *models.AuditLog, actorName string) api.AuditLog {
	changes := l.Changes
	if changes == nil {
		changes = []models.FieldChange{}
	}
	return api.AuditLog{
		ID:          l.ID,
		ExpenseID:   l.ExpenseID,
		ActorUserID: l.ActorUserID,
		ActorName:   actorName,
		Action:      string(l.Action),
		Changes:     changes,
		Note:        l.Note,
		CreatedAt:   l.CreatedAt,
	}
}

func toAPIExchangeRate(r models.ExchangeRate) api.ExchangeRate {
	return api.ExchangeRate{Currency: r.Currency, Rate: r.Rate, Date: r.Date}
}
