package services

import (
	"context"
	"fmt"
	"time"

	"bloodbank/internal/domain"
)

type stockService struct {
	donorRepo domain.DonorRepository
}

// NewStockService creates the inventory aggregator. It only reads donor
// records; expired or rejected units are excluded from the counts but never
// deleted here.
func NewStockService(donorRepo domain.DonorRepository) domain.StockService {
	return &stockService{donorRepo: donorRepo}
}

// AggregateStock counts usable blood units per blood type as of the given
// instant. Every one of the eight types is present in the result, zero
// counts included.
func (s *stockService) AggregateStock(ctx context.Context, asOf time.Time) (map[domain.BloodType]int, error) {
	donors, err := s.donorRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list donors: %w", err)
	}

	stock := make(map[domain.BloodType]int, len(domain.BloodTypes))
	for _, t := range domain.BloodTypes {
		stock[t] = 0
	}
	for _, donor := range donors {
		for i := range donor.DonationHistory {
			record := &donor.DonationHistory[i]
			if bloodType, ok := usableUnit(record, asOf); ok {
				stock[bloodType]++
			}
		}
	}
	return stock, nil
}

// usableUnit reports whether the record represents a unit that can be
// transfused as of the given instant, and its blood type. A unit is usable
// iff the record is finalized, every attached exam result is approved, and
// the expiry date is strictly after asOf.
func usableUnit(record *domain.DonationRecord, asOf time.Time) (domain.BloodType, bool) {
	if record.Open() {
		return "", false
	}
	if record.ExpiryDate == nil || !record.ExpiryDate.After(asOf) {
		return "", false
	}
	for _, test := range record.BloodTests {
		if test.ExamsResult != domain.ExamsApproved {
			return "", false
		}
	}
	// Re-typing a unit is unsupported, so all results carry the same type.
	return record.BloodTests[0].BloodType, true
}
