package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/expensemate/internal/auth"
	"github.com/mmynk/expensemate/internal/currency"
	"github.com/mmynk/expensemate/internal/models"
	"github.com/mmynk/expensemate/internal/storage"
)

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotParticipant       = errors.New("you are not a participant")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationExpired    = models.ErrInvitationExpired
	ErrInvitationUsed       = models.ErrInvitationUsed
	ErrSelfInvitation       = models.ErrSelfInvitation
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrConnectionNotFound   = errors.New("connection not found")
	ErrExpenseNotInPair     = errors.New("expense does not belong to this connection")
	ErrInvalidPayer         = errors.New("payer must be a member of the connection")
	ErrInvalidPaymentType   = errors.New("invalid payment type")
	ErrRateUnavailable      = currency.ErrRateUnavailable
	errMissingSplitSelector = errors.New("splitEqually or paymentType is required")
)

// toConnectError maps domain errors onto Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)

	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrInvitationNotFound),
		errors.Is(err, ErrExpenseNotFound),
		errors.Is(err, ErrConnectionNotFound),
		errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)

	case errors.Is(err, ErrNotParticipant):
		return connect.NewError(connect.CodePermissionDenied, err)

	case errors.Is(err, ErrInvitationExpired),
		errors.Is(err, ErrInvitationUsed),
		errors.Is(err, ErrSelfInvitation),
		errors.Is(err, ErrExpenseNotInPair):
		return connect.NewError(connect.CodeFailedPrecondition, err)

	case errors.Is(err, ErrRateUnavailable):
		return connect.NewError(connect.CodeUnavailable, err)

	case errors.Is(err, ErrInvalidPayer),
		errors.Is(err, ErrInvalidPaymentType),
		errors.Is(err, errMissingSplitSelector),
		errors.Is(err, auth.ErrWeakPassword):
		return connect.NewError(connect.CodeInvalidArgument, err)

	case errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)

	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
