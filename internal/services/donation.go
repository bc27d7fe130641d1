package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodbank/internal/domain"
)

// maxUpdateRetries bounds how many times a history mutation is retried when
// another writer bumps the donor's version first.
const maxUpdateRetries = 3

type donationService struct {
	donorRepo domain.DonorRepository
	now       func() time.Time
}

// NewDonationService creates the donation lifecycle manager. All history
// mutations go through a compare-and-swap on the donor's version, so two
// concurrent creations for the same donor cannot both observe "no open
// record" and both land.
func NewDonationService(donorRepo domain.DonorRepository) domain.DonationService {
	return &donationService{
		donorRepo: donorRepo,
		now:       time.Now,
	}
}

func (s *donationService) CreateDonation(ctx context.Context, donorID string) (*domain.DonationRecord, error) {
	var created *domain.DonationRecord
	err := s.withHistoryRetry(ctx, donorID, func(donor *domain.Donor) error {
		now := s.now()
		if result := domain.EvaluateEligibility(donor, now); result.Status != domain.Eligible {
			return &domain.IneligibleDonorError{Result: result}
		}
		if donor.OpenDonation() != nil {
			return domain.ErrOpenDonationExists
		}
		expiry := now.Add(domain.ShelfLife)
		record := domain.DonationRecord{
			ID:               uuid.NewString(),
			DonationDate:     now,
			BloodTests:       []domain.BloodTestResult{},
			ExpiryDate:       &expiry,
			NextDonationDate: now.Add(domain.CoolingOffFor(donor.Sex)),
		}
		donor.DonationHistory = append(donor.DonationHistory, record)
		created = &donor.DonationHistory[len(donor.DonationHistory)-1]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *donationService) ReadDonation(ctx context.Context, donorID, donationID string) (*domain.DonationRecord, error) {
	donor, err := s.getDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}
	record := donor.FindDonation(donationID)
	if record == nil {
		return nil, domain.ErrDonationNotFound
	}
	return record, nil
}

func (s *donationService) ReadHistory(ctx context.Context, donorID string) ([]domain.DonationRecord, error) {
	donor, err := s.getDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}
	return donor.DonationHistory, nil
}

func (s *donationService) AddBloodExams(ctx context.Context, donorID, donationID string, tests []domain.NewBloodTest) (*domain.DonationRecord, error) {
	if len(tests) == 0 {
		return nil, fmt.Errorf("at least one blood test result is required")
	}
	for _, t := range tests {
		if !t.BloodType.Valid() {
			return nil, domain.ErrInvalidBloodType
		}
	}

	var amended *domain.DonationRecord
	err := s.withHistoryRetry(ctx, donorID, func(donor *domain.Donor) error {
		record := donor.FindDonation(donationID)
		if record == nil {
			return domain.ErrDonationNotFound
		}
		// A finalized unit's test result is immutable; correcting it means
		// deleting and recreating the donation.
		if !record.Open() {
			return domain.ErrDonationFinalized
		}
		for _, t := range tests {
			record.BloodTests = append(record.BloodTests, domain.BloodTestResult{
				ID:          uuid.NewString(),
				BloodType:   t.BloodType,
				Exams:       t.Exams,
				ExamsResult: strings.ToLower(strings.TrimSpace(t.ExamsResult)),
			})
		}
		amended = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amended, nil
}

func (s *donationService) DeleteDonation(ctx context.Context, donorID string) (*domain.DonationRecord, error) {
	var removed *domain.DonationRecord
	err := s.withHistoryRetry(ctx, donorID, func(donor *domain.Donor) error {
		last := donor.LastDonation()
		if last == nil {
			return domain.ErrNoDonationToDelete
		}
		cp := *last
		removed = &cp
		donor.DonationHistory = donor.DonationHistory[:len(donor.DonationHistory)-1]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// withHistoryRetry loads the donor, lets mutate change its history, and
// writes the history back with a version check. On a version conflict it
// re-reads and tries again up to maxUpdateRetries times.
func (s *donationService) withHistoryRetry(ctx context.Context, donorID string, mutate func(*domain.Donor) error) error {
	var lastErr error
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		donor, err := s.getDonor(ctx, donorID)
		if err != nil {
			return err
		}
		if err := mutate(donor); err != nil {
			return err
		}
		err = s.donorRepo.UpdateHistory(ctx, donor.ID, donor.DonationHistory, donor.Version)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrDonorNotFound) {
			return err
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			lastErr = err
			continue
		}
		return fmt.Errorf("failed to update donation history: %w", err)
	}
	return lastErr
}

func (s *donationService) getDonor(ctx context.Context, donorID string) (*domain.Donor, error) {
	donor, err := s.donorRepo.GetByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDonorNotFound
		}
		return nil, fmt.Errorf("failed to get donor: %w", err)
	}
	return donor, nil
}
