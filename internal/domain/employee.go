package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for employee and authentication operations.
var (
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrDuplicateEmployeeCode = errors.New("an employee with this code already exists")
	ErrCannotDeleteAdmin     = errors.New("administrators cannot be deleted")
	ErrInvalidCredentials    = errors.New("invalid credentials")
)

// Employee is a back-office staff account. EmployeeCode is the generated
// numeric code used to log in.
// swagger:model Employee
type Employee struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	EmployeeCode string    `json:"employeeCode"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PasswordHasher hashes and verifies employee passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenClaims are the verified contents of an access token.
type TokenClaims struct {
	EmployeeID string
	JTI        string
	IsAdmin    bool
	ExpiresAt  time.Time
}

// TokenIssuer issues access tokens for an authenticated employee.
type TokenIssuer interface {
	Issue(employeeID string, isAdmin bool, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

// TokenBlacklist records revoked token ids until they would have expired.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// EmployeeRepository defines the interface for employee storage.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *Employee) error
	GetByCode(ctx context.Context, code string) (*Employee, error)
	GetByID(ctx context.Context, id string) (*Employee, error)
	List(ctx context.Context) ([]*Employee, error)
	UpdatePassword(ctx context.Context, code, passwordHash string) error
	Delete(ctx context.Context, code string) error
}

// EmployeeService defines the business logic for staff accounts.
type EmployeeService interface {
	Create(ctx context.Context, name, email, password string, isAdmin bool) (*Employee, error)
	GetByCode(ctx context.Context, code string) (*Employee, error)
	List(ctx context.Context) ([]*Employee, error)
	ChangePassword(ctx context.Context, code, newPassword string) error
	Delete(ctx context.Context, code string) error
}

// AuthService authenticates employees and revokes their tokens on logout.
type AuthService interface {
	Login(ctx context.Context, employeeCode, password string) (token string, employee *Employee, err error)
	Logout(ctx context.Context, token string) error
}
