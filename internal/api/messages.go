package api

import (
	"time"

	"github.com/mmynk/expensemate/internal/models"
)

// User is the public view of a user.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Connection is an accepted pairing between two users.
type Connection struct {
	ID            string    `json:"id"`
	InviterUserID string    `json:"inviterUserId"`
	InviteeUserID string    `json:"inviteeUserId"`
	AcceptedAt    time.Time `json:"acceptedAt"`
}

// Invitation is the public view of an invitation token.
type Invitation struct {
	Token         string    `json:"token"`
	InviterUserID string    `json:"inviterUserId"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expirationTime"`
	IsUsed        bool      `json:"isUsed"`
}

// Expense is a shared cost. TotalCost is in USD; the original fields are
// set when the expense was entered in another currency.
type Expense struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Date              time.Time  `json:"date"`
	Category          *string    `json:"category,omitempty"`
	TotalCost         float64    `json:"totalCost"`
	Currency          string     `json:"currency"`
	PaidBy            string     `json:"paidBy"`
	OriginalCurrency  *string    `json:"originalCurrency,omitempty"`
	OriginalTotalCost *float64   `json:"originalTotalCost,omitempty"`
	ExchangeRate      *float64   `json:"exchangeRate,omitempty"`
	ConversionDate    *time.Time `json:"conversionDate,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// SharedExpense is one ledger line between the caller and a connection.
type SharedExpense struct {
	Expense    Expense `json:"expense"`
	AmountPaid float64 `json:"amountPaid"`
	AmountOwed float64 `json:"amountOwed"`
	Balance    float64 `json:"balance"`
}

// AuditLog is one history entry with the actor's display name resolved.
type AuditLog struct {
	ID          string               `json:"id"`
	ExpenseID   string               `json:"expenseId"`
	ActorUserID string               `json:"actorUserId"`
	ActorName   string               `json:"actorName"`
	Action      string               `json:"action"`
	Changes     []models.FieldChange `json:"changes"`
	Note        *string              `json:"note,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// ExchangeRate is units of Currency per 1 USD.
type ExchangeRate struct {
	Currency string    `json:"currency"`
	Rate     float64   `json:"rate"`
	Date     time.Time `json:"date"`
}

// UserService

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"required,max=100"`
	Password    string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type PersistUserRequest struct{}

type PersistUserResponse struct {
	Status string `json:"status"`
	User   User   `json:"user"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User User `json:"user"`
}

// InvitationService

type CreateInvitationLinkRequest struct{}

type CreateInvitationLinkResponse struct {
	InvitationLink string    `json:"invitationLink"`
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expirationTime"`
}

type GetInvitationRequest struct {
	Token string `json:"token" validate:"required"`
}

type GetInvitationResponse struct {
	InviterName string     `json:"inviterName"`
	Invitation  Invitation `json:"invitation"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token" validate:"required"`
}

type AcceptInvitationResponse struct {
	Connection Connection `json:"connection"`
}

type ExpireAllInvitationsRequest struct{}

type ExpireAllInvitationsResponse struct {
	Expired int64 `json:"expired"`
}

// ConnectionService

type GetConnectionRequest struct {
	ConnectionID string `json:"connectionId" validate:"required"`
}

type GetConnectionResponse struct {
	Connection Connection `json:"connection"`
}

type ListConnectedUsersRequest struct{}

type ConnectedUser struct {
	ConnectionID string  `json:"connectionId"`
	UserID       string  `json:"userId"`
	Name         string  `json:"name"`
	TotalBalance float64 `json:"totalBalance"`
}

type ListConnectedUsersResponse struct {
	Users []ConnectedUser `json:"users"`
}

type GetSharedExpensesRequest struct {
	ConnectionID string `json:"connectionId" validate:"required"`
}

type GetSharedExpensesResponse struct {
	OtherUserID   string          `json:"otherUserId"`
	OtherUserName string          `json:"otherUserName"`
	TotalBalance  float64         `json:"totalBalance"`
	Expenses      []SharedExpense `json:"expenses"`
}

type DeleteConnectionRequest struct {
	ConnectionID string `json:"connectionId" validate:"required"`
}

type DeleteConnectionResponse struct {
	DeletedExpenses int `json:"deletedExpenses"`
}

// ExpenseService

// CreateExpenseRequest names the payer either with PaidBy and SplitEqually or
// with a legacy PaymentType string read from the caller's side.
type CreateExpenseRequest struct {
	ConnectionID string    `json:"connectionId" validate:"required"`
	Name         string    `json:"name" validate:"required,max=200"`
	Date         time.Time `json:"date" validate:"required"`
	Category     *string   `json:"category,omitempty"`
	TotalCost    float64   `json:"totalCost" validate:"gt=0"`
	Currency     string    `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	PaidBy       string    `json:"paidBy,omitempty" validate:"required_without=PaymentType"`
	SplitEqually *bool     `json:"splitEqually,omitempty" validate:"required_without=PaymentType"`
	PaymentType  string    `json:"paymentType,omitempty"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

// UpdateExpenseRequest leaves absent optional fields unchanged. An empty
// Category clears it.
type UpdateExpenseRequest struct {
	ID           string     `json:"id" validate:"required"`
	ConnectionID string     `json:"connectionId" validate:"required"`
	Name         *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Date         *time.Time `json:"date,omitempty"`
	Category     *string    `json:"category,omitempty"`
	TotalCost    *float64   `json:"totalCost,omitempty" validate:"omitempty,gt=0"`
	Currency     *string    `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	PaidBy       string     `json:"paidBy,omitempty" validate:"required_without=PaymentType"`
	SplitEqually *bool      `json:"splitEqually,omitempty" validate:"required_without=PaymentType"`
	PaymentType  string     `json:"paymentType,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense Expense `json:"expense"`
	Logged  bool    `json:"logged"`
}

type DeleteExpenseRequest struct {
	ID string `json:"id" validate:"required"`
}

type DeleteExpenseResponse struct{}

type GetMyExpensesRequest struct{}

type GetMyExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

// ActivityService

type GetExpenseAuditLogsRequest struct {
	ExpenseID string `json:"expenseId" validate:"required"`
}

type GetMyActivityFeedRequest struct{}

type GetActivityForConnectionRequest struct {
	ConnectionID string `json:"connectionId" validate:"required"`
}

type GetActivityWithUserRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type AuditLogsResponse struct {
	Logs []AuditLog `json:"logs"`
}

// CurrencyService

type GetLatestExchangeRateRequest struct {
	Currency string `json:"currency" validate:"required,len=3,alpha"`
}

type GetLatestExchangeRateResponse struct {
	Rate ExchangeRate `json:"rate"`
}

type GetSupportedCurrenciesRequest struct{}

type GetSupportedCurrenciesResponse struct {
	Currencies []ExchangeRate `json:"currencies"`
}
