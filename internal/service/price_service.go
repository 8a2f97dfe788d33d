package service

import (
	"context"

	"parkgate/internal/models"
)

// RateSource reads the configured hourly rate.
type RateSource interface {
	GetActiveRate(ctx context.Context) (*models.Price, error)
}

const fallbackRatePerHour = 1.0

// PriceService resolves the hourly rate with a fixed fallback: missing,
// unreadable or non-positive configuration never blocks an exit.
type PriceService struct {
	source      RateSource
	defaultRate float64
}

// NewPriceService returns the rate resolver. A nil source always yields the
// default rate.
func NewPriceService(source RateSource, defaultRate float64) *PriceService {
	if defaultRate <= 0 {
		defaultRate = fallbackRatePerHour
	}
	return &PriceService{source: source, defaultRate: defaultRate}
}

// RatePerHour returns the active configured rate or the default.
func (s *PriceService) RatePerHour(ctx context.Context) float64 {
	if s.source == nil {
		return s.defaultRate
	}
	price, err := s.source.GetActiveRate(ctx)
	if err != nil || price.RatePerHour <= 0 {
		return s.defaultRate
	}
	return price.RatePerHour
}
