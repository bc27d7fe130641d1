package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"bloodbank/internal/domain"
)

const (
	minPasswordLen     = 8
	employeeCodeDigits = 6
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type employeeService struct {
	employeeRepo domain.EmployeeRepository
	hasher       domain.PasswordHasher
	emailService domain.EmailService
	random       io.Reader
	logger       *slog.Logger
	now          func() time.Time
}

// NewEmployeeService creates an EmployeeService. random is the entropy
// source for generated access codes (crypto/rand.Reader in production, a
// fixed reader in tests). emailService may be nil to skip welcome emails.
func NewEmployeeService(employeeRepo domain.EmployeeRepository, hasher domain.PasswordHasher, emailService domain.EmailService, random io.Reader, logger *slog.Logger) domain.EmployeeService {
	return &employeeService{
		employeeRepo: employeeRepo,
		hasher:       hasher,
		emailService: emailService,
		random:       random,
		logger:       logger,
		now:          time.Now,
	}
}

// GenerateEmployeeCode returns a numeric access code with the given number
// of digits, read from the provided random source.
func GenerateEmployeeCode(random io.Reader, digits int) (string, error) {
	b := make([]byte, digits)
	if _, err := io.ReadFull(random, b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = '0' + b[i]%10
	}
	return string(b), nil
}

func (s *employeeService) Create(ctx context.Context, name, email, password string, isAdmin bool) (*domain.Employee, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("invalid email format")
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	code, err := GenerateEmployeeCode(s.random, employeeCodeDigits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate employee code: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	employee := &domain.Employee{
		Name:         name,
		Email:        email,
		EmployeeCode: code,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.employeeRepo.Create(ctx, employee); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmployeeCode) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	if s.emailService != nil {
		data := &domain.EmployeeWelcomeEmailData{
			Email:        employee.Email,
			Name:         employee.Name,
			EmployeeCode: employee.EmployeeCode,
		}
		// The account exists either way; log and continue.
		if err := s.emailService.SendEmployeeWelcome(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "failed to send welcome email", "email", employee.Email, "err", err)
		}
	}
	return employee, nil
}

func (s *employeeService) GetByCode(ctx context.Context, code string) (*domain.Employee, error) {
	employee, err := s.employeeRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}

func (s *employeeService) List(ctx context.Context) ([]*domain.Employee, error) {
	employees, err := s.employeeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

func (s *employeeService) ChangePassword(ctx context.Context, code, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.employeeRepo.UpdatePassword(ctx, code, hash); err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			return err
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *employeeService) Delete(ctx context.Context, code string) error {
	employee, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if employee.IsAdmin {
		return domain.ErrCannotDeleteAdmin
	}
	if err := s.employeeRepo.Delete(ctx, code); err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}
