package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUnknownCurrency = errors.New("unknown currency")

const satsPerBTC = 100_000_000

// RatesService fetches BTC exchange rates and converts jar balances to fiat.
// Rates are cached for a configurable TTL so the upstream API is not hit on
// every request.
type RatesService struct {
	client  *http.Client
	url     string
	ttl     time.Duration
	mu      sync.RWMutex
	rates   map[string]decimal.Decimal
	fetched time.Time
}

// NewRatesService creates a new rates service
func NewRatesService(url string, ttl time.Duration) *RatesService {
	return &RatesService{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		ttl:    ttl,
		rates:  make(map[string]decimal.Decimal),
	}
}

// Rate returns the current price of one BTC in the given currency
func (s *RatesService) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	rates, err := s.currentRates(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	rate, ok := rates[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}
	return rate, nil
}

// FiatValue converts a balance in sats to its value in the given currency,
// rounded to 2 decimal places
func (s *RatesService) FiatValue(ctx context.Context, sats int64, currency string) (decimal.Decimal, error) {
	rate, err := s.Rate(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return fiatValue(sats, rate), nil
}

func fiatValue(sats int64, rate decimal.Decimal) decimal.Decimal {
	btc := decimal.NewFromInt(sats).Div(decimal.NewFromInt(satsPerBTC))
	return btc.Mul(rate).Round(2)
}

func (s *RatesService) currentRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	if time.Since(s.fetched) < s.ttl && len(s.rates) > 0 {
		rates := s.rates
		s.mu.RUnlock()
		return rates, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another request may have refreshed while we waited for the lock
	if time.Since(s.fetched) < s.ttl && len(s.rates) > 0 {
		return s.rates, nil
	}

	rates, err := s.fetchRates(ctx)
	if err != nil {
		// Serve stale rates over failing outright
		if len(s.rates) > 0 {
			return s.rates, nil
		}
		return nil, err
	}

	s.rates = rates
	s.fetched = time.Now()
	return s.rates, nil
}

func (s *RatesService) fetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rates request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates API returned status %d", resp.StatusCode)
	}

	var raw map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode rates response: %w", err)
	}

	rates := make(map[string]decimal.Decimal)
	for currency, value := range raw {
		// The response carries a unix "time" field alongside the prices
		if currency == "time" {
			continue
		}
		rate, err := decimal.NewFromString(value.String())
		if err != nil {
			continue
		}
		if rate.IsPositive() {
			rates[currency] = rate
		}
	}

	if len(rates) == 0 {
		return nil, errors.New("rates response contained no prices")
	}

	return rates, nil
}
