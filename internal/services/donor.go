package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bloodbank/internal/domain"
)

type donorService struct {
	donorRepo    domain.DonorRepository
	cpfValidator domain.CPFValidator
	now          func() time.Time
}

// NewDonorService creates a DonorService with the given repository and CPF
// validator.
func NewDonorService(donorRepo domain.DonorRepository, cpfValidator domain.CPFValidator) domain.DonorService {
	return &donorService{
		donorRepo:    donorRepo,
		cpfValidator: cpfValidator,
		now:          time.Now,
	}
}

func (s *donorService) Register(ctx context.Context, donor *domain.Donor) (*domain.Donor, error) {
	donor.Name = strings.TrimSpace(donor.Name)
	donor.CPF = strings.TrimSpace(donor.CPF)

	if !s.cpfValidator.IsValid(donor.CPF) {
		return nil, domain.ErrInvalidCPF
	}

	age := domain.AgeAt(donor.BirthDate, s.now())
	if age < domain.MinDonorAge || age > domain.MaxDonorAge {
		return nil, domain.ErrAgeOutOfRange
	}

	existing, err := s.donorRepo.GetByCPF(ctx, donor.CPF)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing donor: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateCPF
	}

	now := s.now()
	donor.CreatedAt = now
	donor.UpdatedAt = now
	if donor.DonationHistory == nil {
		donor.DonationHistory = []domain.DonationRecord{}
	}
	if err := s.donorRepo.Create(ctx, donor); err != nil {
		if errors.Is(err, domain.ErrDuplicateCPF) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create donor: %w", err)
	}
	return donor, nil
}

func (s *donorService) GetByID(ctx context.Context, id string) (*domain.Donor, error) {
	donor, err := s.donorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDonorNotFound
		}
		return nil, fmt.Errorf("failed to get donor: %w", err)
	}
	return donor, nil
}

func (s *donorService) List(ctx context.Context) ([]*domain.Donor, error) {
	donors, err := s.donorRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list donors: %w", err)
	}
	return donors, nil
}

func (s *donorService) Update(ctx context.Context, id string, patch *domain.DonorPatch) (*domain.Donor, error) {
	donor, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		donor.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Sex != nil {
		donor.Sex = *patch.Sex
	}
	if patch.Address != nil {
		donor.Address = *patch.Address
	}
	if patch.Phone != nil {
		donor.Phone = *patch.Phone
	}
	donor.UpdatedAt = s.now()
	if err := s.donorRepo.Update(ctx, donor); err != nil {
		if errors.Is(err, domain.ErrDonorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update donor: %w", err)
	}
	return donor, nil
}

func (s *donorService) Delete(ctx context.Context, id string) error {
	if err := s.donorRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrDonorNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete donor: %w", err)
	}
	return nil
}
