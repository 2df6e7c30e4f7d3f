package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/expensemate/internal/api"
	"github.com/mmynk/expensemate/internal/currency"
)

// CurrencyService implements the CurrencyService RPC interface.
type CurrencyService struct {
	converter *currency.Converter
	logger    *slog.Logger
}

var _ api.CurrencyServiceHandler = (*CurrencyService)(nil)

// NewCurrencyService creates a new currency service.
func NewCurrencyService(converter *currency.Converter, logger *slog.Logger) *CurrencyService {
	return &CurrencyService{converter: converter, logger: logger}
}

// GetLatestExchangeRate returns the newest stored rate for a currency.
func (s *CurrencyService) GetLatestExchangeRate(ctx context.Context, req *connect.Request[api.GetLatestExchangeRateRequest]) (*connect.Response[api.GetLatestExchangeRateResponse], error) {
	rate, err := s.converter.LatestRate(ctx, req.Msg.Currency)
	if err != nil {
		s.logger.Warn("LatestRate failed", "currency", req.Msg.Currency, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetLatestExchangeRateResponse{Rate: toAPIExchangeRate(*rate)}), nil
}

// GetSupportedCurrencies lists the canonical currency and every supported
// currency that currently has a rate.
func (s *CurrencyService) GetSupportedCurrencies(ctx context.Context, req *connect.Request[api.GetSupportedCurrenciesRequest]) (*connect.Response[api.GetSupportedCurrenciesResponse], error) {
	rates, err := s.converter.SupportedCurrencies(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	out := make([]api.ExchangeRate, len(rates))
	for i, r := range rates {
		out[i] = toAPIExchangeRate(r)
	}
	return connect.NewResponse(&api.GetSupportedCurrenciesResponse{Currencies: out}), nil
}
