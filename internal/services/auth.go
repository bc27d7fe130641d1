package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bloodbank/internal/domain"
)

type authService struct {
	employeeRepo domain.EmployeeRepository
	hasher       domain.PasswordHasher
	tokenIssuer  domain.TokenIssuer
	verifier     domain.TokenVerifier
	blacklist    domain.TokenBlacklist
	tokenExpiry  time.Duration
	now          func() time.Time
}

// NewAuthService creates an AuthService. Logout revokes the token's jti on
// the blacklist until the token would have expired on its own.
func NewAuthService(employeeRepo domain.EmployeeRepository, hasher domain.PasswordHasher, tokenIssuer domain.TokenIssuer, verifier domain.TokenVerifier, blacklist domain.TokenBlacklist, tokenExpiry time.Duration) domain.AuthService {
	return &authService{
		employeeRepo: employeeRepo,
		hasher:       hasher,
		tokenIssuer:  tokenIssuer,
		verifier:     verifier,
		blacklist:    blacklist,
		tokenExpiry:  tokenExpiry,
		now:          time.Now,
	}
}

func (s *authService) Login(ctx context.Context, employeeCode, password string) (string, *domain.Employee, error) {
	employee, err := s.employeeRepo.GetByCode(ctx, employeeCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if err := s.hasher.Compare(employee.PasswordHash, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	token, err := s.tokenIssuer.Issue(employee.ID, employee.IsAdmin, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, employee, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		// An unverifiable token can never authenticate; nothing to revoke.
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.blacklist.Revoke(ctx, claims.JTI, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
